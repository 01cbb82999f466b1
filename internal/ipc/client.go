package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Send delivers one command to the daemon listening on socketPath and waits
// for its response. A daemon-side failure is a Response with Success false,
// not an error.
func Send(socketPath string, cmd Command, timeout time.Duration) (Response, error) {
	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return Response{}, fmt.Errorf("%w (%s): %v", ErrDaemonUnavailable, socketPath, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(timeout))

	if err := json.NewEncoder(conn).Encode(cmd); err != nil {
		return Response{}, fmt.Errorf("error sending command: %w", err)
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("error receiving response: %w", err)
	}
	return resp, nil
}

// DecodeData converts a loosely typed Args or Data value (a map after a JSON
// round trip) into the struct it was sent as.
func DecodeData(input interface{}, output interface{}) error {
	if input == nil {
		return nil
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := json.Unmarshal(raw, output); err != nil {
		return fmt.Errorf("failed to unmarshal payload into struct: %w", err)
	}
	return nil
}
