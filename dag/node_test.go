package dag

import (
	"encoding/json"
	"testing"
)

func TestStatus_Text(t *testing.T) {
	for _, s := range []Status{StatusNone, StatusSuccess, StatusError, StatusProgress} {
		t.Run(s.String(), func(t *testing.T) {
			data, err := json.Marshal(map[int]Status{7: s})
			if err != nil {
				t.Fatal(err)
			}
			var got map[int]Status
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatal(err)
			}
			if got[7] != s {
				t.Errorf("round trip of %s = %s (%s)", s, got[7], data)
			}
		})
	}

	var s Status
	if err := s.UnmarshalText([]byte("DONE")); err == nil {
		t.Error("expected an error for an unknown status")
	}
}
