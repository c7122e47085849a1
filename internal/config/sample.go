package config

// SampleConfig returns a fully commented configuration file
func SampleConfig() string {
	return `# DenseView configuration
version: "1.0"

predict:
  # Base address of the classification service. /predict/ is appended.
  endpoint: "http://localhost:8000"
  # Request timeout. 0 waits for the service indefinitely.
  timeout: 0s
  # Files larger than this are refused before upload.
  max_upload_bytes: 10485760
  # Accepted number of score columns per prediction row.
  min_classes: 2
  max_classes: 16
  # Multipart part name the service reads the image from.
  field_name: "file"

chart:
  height: 12
  bar_width: 9
  gap: 3
  color: "#2563eb"
  grid_lines: 4
  label_prefix: "Class"
  aria_label: "A bar chart showing data"

output:
  # Output of the predict command: text, json, csv or markdown
  format: "text"
  # auto, always or never
  color_mode: "auto"
  verbose: false
  # default, high-contrast or minimal
  theme: "default"
  # Diagnostic log destination while the panel owns the terminal.
  # Empty means denseview.log in the system temp directory.
  log_file: ""

watch:
  extensions: [".png", ".jpg", ".jpeg", ".gif"]
  auto_submit: false
`
}

// MinimalSampleConfig returns a compact configuration with only essential settings
func MinimalSampleConfig() string {
	return `version: "1.0"
predict:
  endpoint: "http://localhost:8000"
output:
  theme: "default"
`
}
