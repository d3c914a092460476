// Package declaration reads DT, DICT, DC and ATU téléservice filings into a
// flat field map plus the raw works-area geometry.
package declaration

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	errs "github.com/a3tai/mcp-dtdict/internal/errors"
	"github.com/a3tai/mcp-dtdict/internal/fields"
)

// Parser holds the tree of one filing between Open and ExtractData.
// It is not safe for concurrent use.
type Parser struct {
	logger   *slog.Logger
	path     string
	root     *xmlquery.Node
	ns       namespaces
	kind     Kind
	number   string
	fields   fields.Map
	boundary Boundary
}

// Option configures a Parser
type Option func(*Parser)

// WithLogger sets the logger used for lookup diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewParser creates an empty parser
func NewParser(opts ...Option) *Parser {
	p := &Parser{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	p.reset()
	return p
}

func (p *Parser) reset() {
	p.root = nil
	p.ns = nil
	p.kind = KindUnknown
	p.number = ""
	p.fields = make(fields.Map)
	p.boundary = Boundary{}
}

// Open loads the filing at path and determines its kind. A document that
// cannot be read or parsed yields ErrDocumentUnreadable; a well-formed
// document without a known declaration body yields KindUnknown together with
// ErrUnrecognizedKind.
func (p *Parser) Open(path string) (Kind, error) {
	p.reset()
	p.path = path

	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, errs.Wrap(errs.ErrorTypeDocumentUnreadable, "cannot open filing", err).WithFile(path)
	}
	defer f.Close()

	return p.load(f)
}

// OpenReader is Open for an in-memory document.
func (p *Parser) OpenReader(r io.Reader) (Kind, error) {
	p.reset()
	p.path = ""
	return p.load(r)
}

func (p *Parser) load(r io.Reader) (Kind, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return KindUnknown, errs.Wrap(errs.ErrorTypeDocumentUnreadable, "cannot parse filing as XML", err).WithFile(p.path)
	}
	if !hasElement(root) {
		return KindUnknown, errs.New(errs.ErrorTypeDocumentUnreadable, "filing has no root element").WithFile(p.path)
	}

	p.root = root
	p.ns = resolveNamespaces(root)

	body := p.declarationBody()
	if body == nil {
		return KindUnknown, errs.New(errs.ErrorTypeUnrecognizedKind, "no declaration under dossierConsultation").WithFile(p.path)
	}

	kind := kindFromLocalName(body.Data)
	if !kind.Known() {
		return KindUnknown, errs.New(errs.ErrorTypeUnrecognizedKind, "unknown declaration element").
			WithContext(body.Data).WithFile(p.path)
	}
	p.kind = kind
	p.fields[fields.TypeDemande] = kind.String()

	numberPath := pathTeleservice
	if kind == KindDT {
		numberPath = pathTeleservice16
	}
	if v, ok := p.first(numberPath); ok {
		p.number = v
		p.fields[fields.NoTeleservice] = v
	}

	p.logger.Debug("filing opened", "path", p.path, "kind", kind.String(), "no_teleservice", p.number)
	return kind, nil
}

// declarationBody returns the first element child of the root
// dossierConsultation element that lives in the téléservice namespace.
// Foreign-namespace siblings placed before the body, such as signature or
// extension blocks, are skipped rather than taken as the declaration.
func (p *Parser) declarationBody() *xmlquery.Node {
	uri, qualified := p.ns[nsTeleservice]
	for _, n := range p.selectAll(pathDeclarationBody) {
		if n.Type != xmlquery.ElementNode {
			continue
		}
		if qualified && n.NamespaceURI != uri {
			continue
		}
		return n
	}
	return nil
}

// Kind returns the kind found by the last Open.
func (p *Parser) Kind() Kind {
	return p.kind
}

// TeleserviceNumber returns the filing identifier found by the last Open.
func (p *Parser) TeleserviceNumber() string {
	return p.number
}

// ExtractData runs the kind-specific lookups, then the plan preferences and
// the boundary block. It does nothing when no declaration kind was
// recognized. Calling it twice yields the same result.
func (p *Parser) ExtractData() {
	if p.root == nil || !p.kind.Known() {
		return
	}

	for _, r := range rulesFor(p.kind) {
		p.apply(r)
	}

	p.fields[fields.TailleDesPlans] = ""
	if p.kind != KindATU {
		for _, r := range planRules {
			p.apply(r)
		}
	}

	p.extractBoundary()

	p.logger.Debug("filing extracted",
		"kind", p.kind.String(),
		"fields", len(p.fields),
		"fragments", len(p.boundary.Fragments))
}

// Document returns a snapshot of what has been extracted so far.
func (p *Parser) Document() *Document {
	return &Document{
		Kind:              p.kind,
		TypeDemande:       p.kind.String(),
		TeleserviceNumber: p.number,
		Fields:            p.fields.Clone(),
		Boundary:          p.boundary.clone(),
		SourcePath:        p.path,
	}
}

func (p *Parser) apply(r rule) {
	if v, ok := p.first(r.path); ok {
		p.fields[r.key] = v
		return
	}
	if r.fallback != "" {
		if v, ok := p.first(r.fallback); ok {
			p.fields[r.key] = v
		}
	}
}

func (p *Parser) extractBoundary() {
	p.boundary = Boundary{}

	if nodes := p.selectAll(pathGeometry); len(nodes) > 0 {
		geom := nodes[0]
		p.boundary.SRSName = geom.SelectAttr("srsName")
		p.boundary.SpatialReferenceID = epsgFromSRSName(p.boundary.SRSName)
		p.boundary.CoordinateDimension = geom.SelectAttr("srsDimension")
	}

	for _, n := range p.selectAll(pathSurfaceMembers) {
		if n.Type != xmlquery.ElementNode {
			continue
		}
		p.boundary.Fragments = append(p.boundary.Fragments, standalone(n).OutputXML(true))
	}
}

// standalone returns a copy of the element n carrying every namespace
// declaration in scope, so its markup parses on its own. The tree is not
// modified; the copy shares n's children.
func standalone(n *xmlquery.Node) *xmlquery.Node {
	declared := make(map[string]bool)
	for _, a := range n.Attr {
		if prefix, ok := namespaceDecl(a); ok {
			declared[prefix] = true
		}
	}

	var inherited []xmlquery.Attr
	for anc := n.Parent; anc != nil; anc = anc.Parent {
		for _, a := range anc.Attr {
			prefix, ok := namespaceDecl(a)
			if !ok || declared[prefix] {
				continue
			}
			declared[prefix] = true
			inherited = append(inherited, a)
		}
	}
	if len(inherited) == 0 {
		return n
	}
	sort.Slice(inherited, func(i, j int) bool {
		return inherited[i].Name.Local < inherited[j].Name.Local
	})

	c := *n
	c.Attr = append(append(make([]xmlquery.Attr, 0, len(n.Attr)+len(inherited)), n.Attr...), inherited...)
	return &c
}

// namespaceDecl reports whether a is an xmlns or xmlns:prefix attribute and
// returns the declared prefix ("" for the default namespace).
func namespaceDecl(a xmlquery.Attr) (string, bool) {
	switch {
	case a.Name.Space == "xmlns":
		return a.Name.Local, true
	case a.Name.Space == "" && a.Name.Local == "xmlns":
		return "", true
	}
	return "", false
}

// epsgFromSRSName keeps what follows the last colon, so both
// "EPSG:2154" and "urn:ogc:def:crs:EPSG::2154" give "2154".
func epsgFromSRSName(srsName string) string {
	if i := strings.LastIndexByte(srsName, ':'); i >= 0 {
		return srsName[i+1:]
	}
	return srsName
}

// first returns the text of the first node matched by template. Blank text
// counts as absent.
func (p *Parser) first(template string) (string, bool) {
	nodes := p.selectAll(template)
	if len(nodes) == 0 {
		return "", false
	}
	text := nodes[0].InnerText()
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// selectAll evaluates template against the loaded tree. Any evaluation
// failure is reported as no match.
func (p *Parser) selectAll(template string) (nodes []*xmlquery.Node) {
	if p.root == nil {
		return nil
	}
	expr := p.ns.expand(template)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Debug("xpath evaluation failed", "expr", expr, "panic", fmt.Sprint(r))
			nodes = nil
		}
	}()

	compiled, err := xpath.CompileWithNS(expr, map[string]string(p.ns))
	if err != nil {
		p.logger.Debug("xpath compile failed", "expr", expr, "error", err)
		return nil
	}
	return xmlquery.QuerySelectorAll(p.root, compiled)
}

func hasElement(root *xmlquery.Node) bool {
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return true
		}
	}
	return false
}

// Parse opens the filing at path and extracts its data in one call.
func Parse(path string, opts ...Option) (*Document, error) {
	p := NewParser(opts...)
	if _, err := p.Open(path); err != nil {
		return nil, err
	}
	p.ExtractData()
	return p.Document(), nil
}

// ParseReader is Parse for an in-memory document.
func ParseReader(r io.Reader, opts ...Option) (*Document, error) {
	p := NewParser(opts...)
	if _, err := p.OpenReader(r); err != nil {
		return nil, err
	}
	p.ExtractData()
	return p.Document(), nil
}
