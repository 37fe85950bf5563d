package types

// Version is the canonical project version, shared by the CLI, the
// snapshot frame stream, and the sink record schema.
const Version = "0.2.0"
