package hostinterface

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shipmanifest/extension/internal/dispatcher"
)

// hostString renders s as a host string literal: double quoted, inner quotes doubled.
func hostString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// formatDispatchResponse renders a handler result as ["ok", <json>] or
// ["error", "<message>"]. Strings are written as host literals, everything
// else as JSON.
func formatDispatchResponse(result any, err error) string {
	if err != nil {
		return fmt.Sprintf(`["error", %s]`, hostString(err.Error()))
	}
	switch v := result.(type) {
	case nil:
		return `["ok"]`
	case string:
		return fmt.Sprintf(`["ok", %s]`, hostString(v))
	}
	data, jerr := json.Marshal(result)
	if jerr != nil {
		return fmt.Sprintf(`["error", %s]`, hostString("encode result: "+jerr.Error()))
	}
	return fmt.Sprintf(`["ok", %s]`, data)
}

// call routes one host call through the dispatcher and formats the reply.
func call(command string, args []string) string {
	d := GetDispatcher()
	if d == nil || !d.HasHandler(command) {
		return formatDispatchResponse(nil, fmt.Errorf("%s: no handler registered", command))
	}
	result, err := d.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: time.Now(),
	})
	return formatDispatchResponse(result, err)
}

// splitCommand separates a plain call "COMMAND|arg|arg" into command and args.
func splitCommand(input string) (string, []string) {
	parts := strings.Split(input, "|")
	return parts[0], parts[1:]
}
