package ir

const (
	// IRVersion is the version of the encoded tree format. It changes
	// together with DomainTree.
	IRVersion = "1"

	// ToolVersion is the exprtrace release version.
	ToolVersion = "0.1.0"
)
