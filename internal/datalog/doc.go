// Package datalog keeps the bounded, persistent history of a single widget.
//
// A Logger owns an ordered sequence of Records (oldest first) and a byte
// budget. After every mutating call the JSON serialization of the whole
// sequence fits the budget; when it does not, whole records are evicted from
// the front. The full sequence is written to a logstore.Store under
// KeyPrefix+widgetID after each mutation. Store failures never reach the
// caller: reads that fail or hold corrupt data yield an empty history, and
// failed writes are logged while memory stays authoritative.
//
// Usage:
//
//	l := datalog.New(store, "w1", 50)
//	l.Log(`{"temp":21.5}`)
//	for _, r := range l.Logs() {
//	    fmt.Println(r.TS, r.Payload)
//	}
//	fmt.Println(l.UsageString(), "KB")
package datalog
