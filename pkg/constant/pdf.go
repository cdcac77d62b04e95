package constant

import "time"

// PDF Generation Constants
const (
	PDFMinValidSizeBytes     = 500
	PDFRenderSettleDelay     = 200 * time.Millisecond
	PDFFilePermissions       = 0o600
	PDFChromeMaxOldSpaceSize = "512"

	// MMPerInch converts template units when sizing the printed page.
	MMPerInch = 25.4
)
