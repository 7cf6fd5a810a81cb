package summarizer

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(translate func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = translate
	}
}

// WithVersion adds the tool version to the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Conversion Summary"))

	fmt.Fprintf(&b, "## %s\n\n", t("Source"))
	f.table(&b, [][2]string{
		{t("Source"), valueOr(s.Source.Kind, "-")},
		{t("Tensor URL"), valueOr(s.Source.Locator, "-")},
		{t("Camera"), valueOr(s.Source.CameraName, "-")},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Payload"))
	p := s.Payload
	f.table(&b, [][2]string{
		{t("Geometry"), fmt.Sprintf("%dx%dx%d", p.Width, p.Height, p.Channels)},
		{t("Frames"), fmt.Sprintf("%d", p.FrameCount)},
		{t("First Timestamp"), valueOr(p.FirstTimestamp, "N/A")},
		{t("Last Timestamp"), valueOr(p.LastTimestamp, "N/A")},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	st := s.Settings
	f.table(&b, [][2]string{
		{t("Quality"), valueOr(st.Quality, "-")},
		{t("Codec"), valueOr(st.Codec, "-")},
		{t("Preset"), valueOr(st.Preset, "-")},
		{t("Pixel Format"), valueOr(st.PixelFormat, "-")},
		{t("CRF"), fmt.Sprintf("%d", st.CRF)},
		{t("Frame Rate"), fmt.Sprintf("%.2f fps", st.FPS)},
		{t("Geometry Mode"), valueOr(st.Geometry, "-")},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Video"))
	v := s.Video
	resolution := "N/A"
	if v.Width > 0 && v.Height > 0 {
		resolution = fmt.Sprintf("%dx%d", v.Width, v.Height)
	}
	f.table(&b, [][2]string{
		{t("Codec"), valueOr(v.Codec, "N/A")},
		{t("Resolution"), resolution},
		{t("Frames"), fmt.Sprintf("%d", v.FrameCount)},
		{t("Samples"), fmt.Sprintf("%d", v.SampleCount)},
		{t("Duration"), fmt.Sprintf("%d ms", v.DurationMs)},
		{t("File Size"), formatBytes(v.FileSize)},
		{t("Conversion Time"), fmt.Sprintf("%d ms", v.ElapsedMs)},
	})

	b.WriteString("---\n\n")
	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	if f.version != "" {
		footer += fmt.Sprintf(" (tensorvideo %s)", f.version)
	}
	b.WriteString(footer + "\n")

	return b.String()
}

func (f *MarkdownFormatter) table(b *strings.Builder, rows [][2]string) {
	fmt.Fprintf(b, "| %s | %s |\n", f.translate("Item"), f.translate("Value"))
	b.WriteString("|---|---|\n")
	for _, row := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", row[0], escapeCell(row[1]))
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// formatBytes renders a byte count with binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}

// Ensure MarkdownFormatter implements Formatter
var _ Formatter = (*MarkdownFormatter)(nil)
