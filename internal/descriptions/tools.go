package descriptions

import "sort"

// Tool names exposed by the MCP server.
const (
	ToolParseDeclaration = "dtdict_parse_declaration"
	ToolBuildRecepisse   = "dtdict_build_recepisse"
	ToolCloseDossier     = "dtdict_close_dossier"
	ToolListDossiers     = "dtdict_list_dossiers"
	ToolServerInfo       = "dtdict_server_info"
)

const (
	ParseDeclarationDescription = `Read a DT, DICT, DC or ATU declaration XML file and report what it contains.

**When to use:** Before answering a filing, to check its kind, teleservice number, declarant, works location and boundary.

**Why it's useful:** Nothing is written. The extracted fields are exactly those the receipt will carry, and the works boundary is merged into a single multipolygon so its area and WKT can be checked.

**Examples:**
• Check a new filing: "What does 2024040200077.xml declare?"
• Verify the boundary: "Does the DT in the inbox have a works area in EPSG:2154?"

**Best practices:** Paths may be relative to the XML inbox. A filing with no recognized declaration body is rejected.`

	BuildRecepisseDescription = `Answer a declaration: write the receipt form data (FDF), optionally fill the PDF receipt, and record the dossier.

**When to use:** Once a filing has been checked and the operator wants the receipt produced.

**Why it's useful:** The receipt is named Recepisse-<kind>-<number> in the configured output directory, which may use @dict_* variables (for example @dict_no_teleservice). The dossier is added to the register as open.

**Examples:**
• "Produce the receipt for dict.xml"
• "Answer every DT waiting in the inbox"

**Best practices:** Check missing_tags in the result: they name receipt fields the PDF template does not define.`

	CloseDossierDescription = `Close an answered dossier in the register and archive its output directory.

**When to use:** After the response to a DT or DICT has been sent.

**Why it's useful:** Records the response date, computes the number of days since reception, copies the annexes into the dossier directory and zips it as <number>.zip (form data files and older archives are left out).

**Examples:**
• "Close dossier 2024040200077, answered today"
• "Close 2024031500123A01 with response date 2024-03-20"

**Best practices:** Dates accept YYYY-MM-DD or RFC 3339. Without a response date the current time is used.`

	ListDossiersDescription = `List the dossiers of the register, newest first.

**When to use:** To see which filings are still open ("en") or already answered ("re").

**Examples:**
• "Which DICT are still open?"
• "Export the register to register.xlsx"

**Best practices:** Filter by state and kind; pass export_path to also write the list as a spreadsheet.`

	ServerInfoDescription = `Show the server configuration and the work waiting.

**When to use:** At the start of a session to find the inbox, the output directory, the receipt template and the filings not yet answered.

**Best practices:** Call this first; the pending list gives the file names the other tools accept.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	ToolParseDeclaration: ParseDeclarationDescription,
	ToolBuildRecepisse:   BuildRecepisseDescription,
	ToolCloseDossier:     CloseDossierDescription,
	ToolListDossiers:     ListDossiersDescription,
	ToolServerInfo:       ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names, sorted
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
