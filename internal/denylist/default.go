package denylist

// DefaultPatterns is the denylist used when no file is configured. Supplier
// bans are organization-specific, so it is empty.
var DefaultPatterns = Patterns{}

// Example documents the file format.
const Example = `# Suppliers barred from new procurement.
# Names match case-insensitively; * matches any run of characters.
suppliers:
  - "Shell Trading Co*"
  - "示例空壳公司"
credit_codes:
  - "91110000XXXXXXXXXX"
`
