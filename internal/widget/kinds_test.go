package widget

import (
	"strings"
	"testing"
	"time"
)

func msg(text, path string) Message {
	return Message{Text: text, Value: Decode(text, path), TS: time.UnixMilli(1000)}
}

func TestSliderAndStepper(t *testing.T) {
	e := newEnv(t)
	s := e.newWidget(t, KindSlider, "sl", Options{Topic: "dim", Min: floatPtr(0), Max: floatPtr(10), Step: floatPtr(0.5)})
	if p, err := s.Interact(Action{Type: "set", Value: "3.3"}); err != nil || p != "3.5" {
		t.Fatalf("slider set: %q %v", p, err)
	}
	if p, _ := s.Interact(Action{Type: "set", Value: "99"}); p != "10" {
		t.Fatalf("slider clamp: %q", p)
	}
	s.OnMessage("dim", []byte("7"))
	if s.State().Display["value"] != 7.0 {
		t.Fatalf("slider update: %v", s.State().Display)
	}

	st := e.newWidget(t, KindStepper, "st", Options{Topic: "vol", Min: floatPtr(0), Max: floatPtr(2)})
	var got []string
	for _, a := range []string{"increment", "increment", "increment", "decrement"} {
		p, err := st.Interact(Action{Type: a})
		if err != nil {
			t.Fatalf("%s: %v", a, err)
		}
		got = append(got, p)
	}
	if strings.Join(got, ",") != "1,2,2,1" {
		t.Fatalf("stepper sequence: %v", got)
	}
}

func TestStepperRestoresLastRecord(t *testing.T) {
	e := newEnv(t)
	opts := Options{Topic: "vol", LoggingEnabled: true}
	st := e.newWidget(t, KindStepper, "st", opts)
	_, _ = st.Interact(Action{Type: "increment"})
	_, _ = st.Interact(Action{Type: "increment"})
	again := e.newWidget(t, KindStepper, "st", opts)
	if again.State().Display["value"] != 2.0 {
		t.Fatalf("stepper restore: %v", again.State().Display)
	}
}

func TestGaugeClamps(t *testing.T) {
	d, _ := newDisplay(KindGauge, Options{}.withDefaults(KindGauge))
	d.Update(msg("150", ""))
	snap := d.Snapshot(time.Time{})
	if snap["value"] != 100.0 || snap["percent"] != 100.0 {
		t.Fatalf("gauge: %v", snap)
	}
	d.Update(msg("not a number", ""))
	if d.Snapshot(time.Time{})["value"] != 0.0 {
		t.Fatalf("non-numeric should read as 0")
	}
}

func TestStatusMatching(t *testing.T) {
	o := Options{States: []StatusState{
		{Value: "open", Label: "Door open"},
		{When: `size > 10`, Label: "Long message"},
		{Value: "closed", Label: "Door closed"},
	}, DefaultState: "?"}
	d, err := newDisplay(KindStatus, o.withDefaults(KindStatus))
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	cases := []struct{ in, want string }{
		{"open", "Door open"},
		{"closed", "Door closed"},
		{"Open", "?"},
		{"closed but long text", "Long message"},
	}
	for _, c := range cases {
		d.Update(msg(c.in, ""))
		if got := d.Snapshot(time.Time{})["state"]; got != c.want {
			t.Errorf("%q: got %v want %v", c.in, got, c.want)
		}
	}
}

func TestTableAccumulatesAndExports(t *testing.T) {
	e := newEnv(t)
	opts := Options{Topic: "rows", LoggingEnabled: true, Columns: "name, temp"}
	w := e.newWidget(t, KindTable, "tb", opts)
	w.OnMessage("rows", []byte(`{"name":"a","temp":1}`))
	w.OnMessage("rows", []byte(`[{"name":"b","temp":2},{"name":"c,d","temp":3}]`))
	w.OnMessage("rows", []byte(`not json`))

	// Live: the array replaced the rows.
	if rows := w.State().Display["rows"].([]any); len(rows) != 2 {
		t.Fatalf("live rows: %v", rows)
	}
	// Replay flattens every record, skipping non-JSON ones.
	again := e.newWidget(t, KindTable, "tb", opts)
	if rows := again.State().Display["rows"].([]any); len(rows) != 3 {
		t.Fatalf("replayed rows: %v", rows)
	}
	out, err := again.CSV()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	want := "name,temp\r\na,1\r\nb,2\r\n\"c,d\",3\r\n"
	if string(out) != want {
		t.Fatalf("csv:\n got %q\nwant %q", out, want)
	}
	if _, err := e.newWidget(t, KindText, "x", Options{}).CSV(); err == nil {
		t.Fatalf("text widgets have no CSV export")
	}
}

func TestTableCapsRows(t *testing.T) {
	d := &tableDisplay{}
	for i := 0; i < tableMaxRows+10; i++ {
		d.Update(msg(`{"i":1}`, ""))
	}
	if len(d.rows) != tableMaxRows {
		t.Fatalf("rows: %d", len(d.rows))
	}
}

func TestBarChart(t *testing.T) {
	o := Options{Labels: "a,b,c"}.withDefaults(KindBarChart)
	d, _ := newDisplay(KindBarChart, o)
	d.Update(msg(`{"a":1,"c":"3.5","z":9}`, ""))
	vals := d.Snapshot(time.Time{})["values"].([]float64)
	if vals[0] != 1 || vals[1] != 0 || vals[2] != 3.5 {
		t.Fatalf("values: %v", vals)
	}
	d2, _ := newDisplay(KindBarChart, o)
	d2.Restore([]Message{msg(`{"a":5}`, ""), msg(`{"b":"x","c":2}`, "")})
	vals = d2.Snapshot(time.Time{})["values"].([]float64)
	if vals[0] != 0 || vals[1] != 0 || vals[2] != 2 {
		t.Fatalf("restore should apply only the last record: %v", vals)
	}
}

func TestTimestampWidget(t *testing.T) {
	e := newEnv(t)
	w := e.newWidget(t, KindTimestamp, "ts", Options{Topic: "a"})
	if w.State().Display["ago"] != "Never" {
		t.Fatalf("initial: %v", w.State().Display)
	}
	w.OnMessage("a", []byte("ping"))
	e.clk.advance(90 * time.Second)
	if got := w.State().Display["ago"]; got != "1m ago" {
		t.Fatalf("ago: %v", got)
	}
}

func TestButtonText(t *testing.T) {
	e := newEnv(t)
	w := e.newWidget(t, KindButton, "b", Options{Topic: "x", OnText: "Open", OffText: "Closed"})
	if w.State().Display["text"] != "Closed" {
		t.Fatalf("initial text")
	}
	if p, _ := w.Interact(Action{Type: "press"}); p != "1" || w.State().Display["text"] != "Open" {
		t.Fatalf("press: %q %v", p, w.State().Display)
	}
	w.OnMessage("x", []byte("0"))
	if w.State().Display["on"] != false {
		t.Fatalf("message should switch the button off")
	}
}

func TestSliderRestoreUsesRawPayload(t *testing.T) {
	d := &sliderDisplay{min: 0, max: 100, step: 1}
	d.Update(msg(`{"v":42}`, "v"))
	if d.value != 42 {
		t.Fatalf("live value: %v", d.value)
	}

	published := &sliderDisplay{min: 0, max: 100, step: 1}
	published.Restore([]Message{msg("10", "v"), msg("42", "v")})
	if published.value != 42 {
		t.Fatalf("restored published value: %v", published.value)
	}

	foreign := &sliderDisplay{min: 0, max: 100, step: 1}
	foreign.Restore([]Message{msg(`{"v":42}`, "v")})
	if foreign.value != 0 {
		t.Fatalf("JSON record should not restore through the path: %v", foreign.value)
	}
}
