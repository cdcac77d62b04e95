package constant

import "time"

// Per-field font size defaults, in template units. Applied only when neither a
// global override nor the template element carries a size.
const (
	DefaultFontSizeFnsku     = 8.0
	DefaultFontSizeSku       = 11.0
	DefaultFontSizeTitle     = 6.0
	DefaultFontSizeCondition = 5.0
)

const (
	// DefaultTitleMaxLength is the hard-cut limit applied to titles before
	// the ellipsis marker is appended.
	DefaultTitleMaxLength = 50

	// TitleEllipsis is appended after a hard cut of an over-long title.
	TitleEllipsis = "..."

	// DefaultTextMaxWidth bounds rendered text width, in template units,
	// for elements that do not declare their own maxWidth.
	DefaultTextMaxWidth = 60.0

	// TextGlyphAspect approximates average glyph width as a fraction of the
	// font size when measuring text for the auto-fit pass.
	TextGlyphAspect = 0.6

	// ConditionTrailingMargin is the fixed distance from the trailing edge
	// used when a condition badge is pinned bottom-right.
	ConditionTrailingMargin = 2.0
)

const (
	// DefaultConditionText is rendered when no condition is configured
	// anywhere in the override chain.
	DefaultConditionText = "NEW"

	DefaultConditionPosition = "bottom-left"
)

// Render limits.
const (
	// MaxLabelQuantity is enforced at the HTTP boundary; the renderer itself
	// only requires a positive quantity.
	MaxLabelQuantity = 1000

	// ImageFetchTimeout bounds a single record-image download.
	ImageFetchTimeout = 10 * time.Second

	// MaxImageEdgePx caps record image rasters; larger images are fit down
	// after decode.
	MaxImageEdgePx = 512
)
