package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Service is the emulated protocol an attempt was observed on.
type Service string

const (
	ServiceSSH  Service = "SSH"
	ServiceHTTP Service = "HTTP"
	ServiceFTP  Service = "FTP"
)

// Services lists every emulated protocol.
func Services() []Service {
	return []Service{ServiceSSH, ServiceHTTP, ServiceFTP}
}

func (s Service) Valid() bool {
	switch s {
	case ServiceSSH, ServiceHTTP, ServiceFTP:
		return true
	}
	return false
}

// ParseService accepts the protocol name in any case.
func ParseService(name string) (Service, error) {
	s := Service(strings.ToUpper(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown service %q", name)
	}
	return s, nil
}

// TimestampLayout is a local ISO-8601 datetime without zone, sortable as text.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// parse layouts, tried in order. Fractional seconds are optional in all of them.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
}

type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(TimestampLayout))
}

// UnmarshalJSON never fails: an unparsable or non-string value leaves the zero time,
// so a record with a broken timestamp is still usable.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	parsed, err := ParseTimestamp(raw)
	if err == nil {
		t.Time = parsed
	}
	return nil
}

func ParseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// AttemptRecord is one observed interaction. It is a value type and is never
// mutated after NewAttempt returns it.
type AttemptRecord struct {
	Timestamp Timestamp `json:"timestamp"`
	Service   Service   `json:"service"`
	// ClientIP is the peer address without port
	ClientIP string `json:"client_ip"`
	Data     string `json:"data"`
}

func NewAttempt(service Service, clientIP, data string) AttemptRecord {
	return AttemptRecord{
		Timestamp: Timestamp{time.Now()},
		Service:   service,
		ClientIP:  clientIP,
		Data:      data,
	}
}

// ErrorAttempt records an interaction that failed before or while reading.
func ErrorAttempt(service Service, clientIP string, err error) AttemptRecord {
	return NewAttempt(service, clientIP, "Error: "+err.Error())
}

func (r AttemptRecord) GetIssuedAt() time.Time {
	return r.Timestamp.Time
}

// Marshal encodes the record as a single log line including the trailing newline.
func Marshal(r AttemptRecord) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
