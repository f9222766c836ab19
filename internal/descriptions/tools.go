package descriptions

import "sort"

// Tool names exposed by the MCP server.
const (
	ToolInvoiceExtract  = "invoice_extract"
	ToolManifestCompare = "manifest_compare"
	ToolExportResult    = "export_result"
	ToolJobStatus       = "job_status"
	ToolServerInfo      = "server_info"
)

const (
	InvoiceExtractDescription = `Extract customs declaration fields from an invoice PDF.

**When to use:** You have a customs invoice / declaration PDF and need one row per declared item.

**What you get:** One record per block starting at a "31 Packages" or "Description of Goods" row, with
TrackingId, Description, CommodityCode, GrossMass and ItemPrice. Fields that cannot be read are left empty.

**Examples:**
• "Extract the declared items from invoices/INV-0042.pdf"
• "Pull tracking numbers and HS codes out of declaration.pdf, then save them to declaration.xlsx"

**Workflow:** invoice_extract → review the preview → export_result with the returned job_id.`

	ManifestCompareDescription = `Reconcile two parent cargo manifests against a child manifest.

**When to use:** You have the house manifests (parents) and the shipment manifest (child) for one flight and
need a single Master/Baby listing.

**What you get:** Parent rows joined to child rows on the HAWB column. Every parent row becomes a Master row,
followed by one Baby row per secondary tracking number listed in the child manifest. Output columns follow
the canonical order (Origin, SequenceNo, WaybillId, Pieces, Weight, ShipperDetails, Destination, BillTerm,
ConsigneeDetails, DescriptionOfGoods, TotalValue, TotalValueLocal, Type).

**Errors:** Fails when the HAWB column is missing from the parents or from a non-empty child manifest.

**Workflow:** manifest_compare → review the preview → export_result with the returned job_id.`

	ExportResultDescription = `Save the records of a finished job as an .xlsx spreadsheet.

**When to use:** After invoice_extract or manifest_compare succeeded with data.

**Behavior:** The .xlsx extension is added when missing. Relative paths are placed in the output directory.
If saving fails the result is kept, so you can call export_result again with another path.`

	JobStatusDescription = `Report the state of a job started by invoice_extract or manifest_compare.

**When to use:** A call was interrupted before its result arrived, or you want to check whether a job
finished and where it was exported.`

	ServerInfoDescription = `Get server information, configured directories, and the available tools.

**When to use:** First call in a session, to learn where input PDFs are read from and where spreadsheets
are written.`
)

// ToolDescriptions maps tool names to their descriptions.
var ToolDescriptions = map[string]string{
	ToolInvoiceExtract:  InvoiceExtractDescription,
	ToolManifestCompare: ManifestCompareDescription,
	ToolExportResult:    ExportResultDescription,
	ToolJobStatus:       JobStatusDescription,
	ToolServerInfo:      ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns every tool name, sorted.
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
