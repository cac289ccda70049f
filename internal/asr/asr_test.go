package asr

import "testing"

func TestTranscript_AvgConfidence(t *testing.T) {
	tr := Transcript{
		Text: "weather in Frankfurt",
		Words: []Word{
			{Token: "weather", Confidence: 0.9},
			{Token: "in", Confidence: 0.8},
			{Token: "Frankfurt", Confidence: 0.7},
		},
	}

	avg, ok := tr.AvgConfidence()
	if !ok {
		t.Fatal("Expected a confidence value")
	}
	if avg < 0.799 || avg > 0.801 {
		t.Errorf("AvgConfidence = %f, want 0.8", avg)
	}
}

func TestTranscript_AvgConfidenceWithoutWords(t *testing.T) {
	tr := Transcript{Text: "weather in Frankfurt"}

	if _, ok := tr.AvgConfidence(); ok {
		t.Error("Expected no confidence when the engine reports no words")
	}
}
