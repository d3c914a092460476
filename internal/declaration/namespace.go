package declaration

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// Logical namespace tags. XPath templates refer to them as {ts}, {gml}, ...
// and never to the prefixes chosen by the document author.
const (
	nsTeleservice = "ts"
	nsINSEE       = "insee"
	nsGML         = "gml"
	nsXLink       = "xlink"
	nsGMD         = "gmd"
	nsGCO         = "gco"
	nsGSR         = "gsr"
	nsGTS         = "gts"
	nsGSS         = "gss"
)

// namespacePatterns maps a URI fragment to its logical tag, tested in order.
var namespacePatterns = []struct {
	fragment string
	tag      string
}{
	{"http://www.reseaux-et-canalisations.gouv.fr/schema-teleservice/", nsTeleservice},
	{"http://xml.insee.fr/schema", nsINSEE},
	{"http://www.opengis.net/gml", nsGML},
	{"http://www.w3.org/1999/xlink", nsXLink},
	{"http://www.isotc211.org/2005/gmd", nsGMD},
	{"http://www.isotc211.org/2005/gco", nsGCO},
	{"http://www.isotc211.org/2005/gsr", nsGSR},
	{"http://www.isotc211.org/2005/gts", nsGTS},
	{"http://www.isotc211.org/2005/gss", nsGSS},
}

// namespaces binds logical tags to the URIs a particular document uses.
type namespaces map[string]string

// tagForURI returns the logical tag a namespace URI belongs to.
func tagForURI(uri string) (string, bool) {
	for _, p := range namespacePatterns {
		if strings.Contains(uri, p.fragment) {
			return p.tag, true
		}
	}
	return "", false
}

// resolveNamespaces walks the tree once and records, for each logical tag,
// the first matching URI found either on an element or in an xmlns
// declaration.
func resolveNamespaces(root *xmlquery.Node) namespaces {
	ns := make(namespaces)
	bind := func(uri string) {
		if uri == "" {
			return
		}
		if tag, ok := tagForURI(uri); ok {
			if _, seen := ns[tag]; !seen {
				ns[tag] = uri
			}
		}
	}

	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		for ; n != nil; n = n.NextSibling {
			if n.Type == xmlquery.ElementNode {
				bind(n.NamespaceURI)
				for _, a := range n.Attr {
					if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
						bind(a.Value)
					}
				}
			}
			walk(n.FirstChild)
		}
	}
	walk(root)
	return ns
}

// expand substitutes {tag} placeholders with "tag:" when the document
// declares that namespace and with nothing otherwise, so undeclared
// namespaces fall back to unqualified names.
func (ns namespaces) expand(template string) string {
	if !strings.Contains(template, "{") {
		return template
	}
	var b strings.Builder
	for {
		start := strings.IndexByte(template, '{')
		if start < 0 {
			b.WriteString(template)
			break
		}
		end := strings.IndexByte(template[start:], '}')
		if end < 0 {
			b.WriteString(template)
			break
		}
		end += start
		b.WriteString(template[:start])
		tag := template[start+1 : end]
		if _, ok := ns[tag]; ok {
			b.WriteString(tag)
			b.WriteByte(':')
		}
		template = template[end+1:]
	}
	return b.String()
}
