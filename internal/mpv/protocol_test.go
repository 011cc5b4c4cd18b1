package mpv

import (
	"encoding/json"
	"testing"
)

func TestCommandWireFormat(t *testing.T) {
	cmd := Command{Command: []any{"loadfile", "/a.mp3", "replace"}, RequestID: 7}

	data, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"command":["loadfile","/a.mp3","replace"],"request_id":7}`
	if string(data) != want {
		t.Errorf("wire = %s, want %s", data, want)
	}
}

func TestResponseSuccess(t *testing.T) {
	j := `{"request_id":3,"error":"success","data":12.5}`

	var resp Response
	if err := json.Unmarshal([]byte(j), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !resp.OK() || resp.Err() != nil {
		t.Errorf("error = %q, want success", resp.Error)
	}
	f, err := resp.Float()
	if err != nil || f != 12.5 {
		t.Errorf("Float() = %v, %v; want 12.5", f, err)
	}
}

func TestResponseError(t *testing.T) {
	j := `{"request_id":4,"error":"property unavailable"}`

	var resp Response
	if err := json.Unmarshal([]byte(j), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.OK() {
		t.Error("OK() = true, want false")
	}
	if err := resp.Err(); err == nil || err.Error() != "mpv: property unavailable" {
		t.Errorf("Err() = %v", err)
	}
	if _, err := resp.Float(); err == nil {
		t.Error("Float() without data should fail")
	}
}

func TestEventEndFile(t *testing.T) {
	j := `{"event":"end-file","reason":"error","playlist_entry_id":2,"file_error":"no such file"}`

	var msg message
	if err := json.Unmarshal([]byte(j), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !msg.isEvent() {
		t.Fatal("end-file line should decode as an event")
	}
	if msg.Event.Event != EventEndFile || msg.Reason != ReasonError {
		t.Errorf("event = %+v", msg.Event)
	}
	if msg.PlaylistEntryID != 2 || msg.FileError != "no such file" {
		t.Errorf("entry = %d, file_error = %q", msg.PlaylistEntryID, msg.FileError)
	}
}

func TestMessageDistinguishesResponses(t *testing.T) {
	var msg message
	if err := json.Unmarshal([]byte(`{"request_id":1,"error":"success"}`), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.isEvent() {
		t.Error("response line decoded as an event")
	}
	if msg.RequestID != 1 {
		t.Errorf("request id = %d, want 1", msg.RequestID)
	}
}

func TestLoadfileData(t *testing.T) {
	var data loadfileData
	if err := json.Unmarshal([]byte(`{"playlist_entry_id":9}`), &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if data.PlaylistEntryID != 9 {
		t.Errorf("playlist_entry_id = %d, want 9", data.PlaylistEntryID)
	}
}
