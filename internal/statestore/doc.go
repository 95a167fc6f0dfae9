// Package statestore persists counter states in SQLite.
//
// SQLiteStore answers the registry's restore lookups at startup and records
// every published state, keeping the latest value per entity in
// counter_states and an append-only log in counter_state_history. The schema
// comes from the embedded migrations.
//
// Usage:
//
//	store := statestore.NewSQLiteStore(db.DB)
//	store.SetLogger(log)
//	registry := counter.NewRegistry(store, notify.NewFanout(store, mqttPublisher))
package statestore
