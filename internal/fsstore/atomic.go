package fsstore

import (
	"strings"

	"github.com/natefinch/atomic"
)

// writeFileAtomic writes content to path via temp-write + rename, as
// required by every atomic write named in spec.md (write_snapshot,
// ensure_uid's rewrite, write_text_atomic, write_plugin_data_json_atomic).
// Grounded on _examples/calvinalkan-agent-task's use of the same package.
func writeFileAtomic(path, content string) error {
	return atomic.WriteFile(path, strings.NewReader(content))
}
