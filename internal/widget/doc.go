// Package widget models dashboard widgets as display-state machines bound to
// a topic.
//
// A Widget decodes incoming payloads, records them in its datalog history
// when logging is enabled, and updates a kind-specific Display. When logging
// is (re)enabled or the widget is reconfigured, the stored history is
// replayed through the Display oldest first, using each record's own
// timestamp, so the widget comes back showing what it showed before.
//
// Kinds: text, log, switch, button, slider, stepper, gauge, status, table,
// barchart and timestamp. Publishing kinds (switch, button, slider, stepper)
// implement Interactor and send their payload through the injected
// Publisher.
package widget
