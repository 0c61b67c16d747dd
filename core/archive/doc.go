// Package archive persists run results. Results live as JSON files in the
// data directory layout
//
//	<root>/datasets/<dataset>/<instance>
//	<root>/experiments-prescriptions/<prescription file>
//	<root>/results/<prescription>/<dataset>/<solver id>/<instance>
//
// and can additionally be indexed in SQLite for querying and journaled as
// rotating JSONL run events.
package archive
