package realtime

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// writeFrame encodes msg as one text/event-stream frame. Multi-line payloads
// are split into several data lines.
func writeFrame(w io.Writer, id uint64, msg SSEMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "id: %d\n", id)
	if msg.Event != "" {
		fmt.Fprintf(bw, "event: %s\n", msg.Event)
	}
	for _, line := range strings.Split(string(payload), "\n") {
		fmt.Fprintf(bw, "data: %s\n", line)
	}
	bw.WriteString("\n")
	return bw.Flush()
}

// writeRetry tells EventSource how long to wait before reconnecting.
func writeRetry(w io.Writer, d time.Duration) error {
	_, err := fmt.Fprintf(w, "retry: %d\n\n", d.Milliseconds())
	return err
}

func writeHeartbeat(w io.Writer) error {
	_, err := io.WriteString(w, ": ping\n\n")
	return err
}
