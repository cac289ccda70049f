package observability

import (
	"bytes"
	"strings"
	"testing"
)

func TestWithTurnID_CarriesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := WithTurnID("turn-42").Output(&buf)

	log.Info().Msg("classified")

	if !strings.Contains(buf.String(), `"turn_id":"turn-42"`) {
		t.Errorf("log line = %q, want a turn_id field", buf.String())
	}
}

func TestWithTurnID_GeneratesIDWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	log := WithTurnID("").Output(&buf)

	log.Info().Msg("classified")

	if !strings.Contains(buf.String(), `"turn_id":"`) {
		t.Errorf("log line = %q, want a generated turn_id", buf.String())
	}
}

func TestNewTurnID_Unique(t *testing.T) {
	if NewTurnID() == NewTurnID() {
		t.Error("Expected distinct correlation IDs")
	}
}
