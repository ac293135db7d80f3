// Package myriadv1 describes the myriad.v1.History gRPC service. Requests
// and responses are google.protobuf.Struct documents so the service needs no
// generated message types; field names match the HTTP API.
//
//	Log      {widget, payload}  -> {widget, records, usageKB}
//	Logs     {widget}           -> {widget, records: [{ts, payload}], usageKB, limitKB}
//	Usage    {widget}           -> {widget, usageKB, bytes, limitKB}
//	Clear    {widget}           -> {}
//	SetLimit {widget, limitKB}  -> {widget, records, usageKB, limitKB}
package myriadv1
