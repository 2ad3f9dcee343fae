package store

import (
	"encoding/json"
	"fmt"

	"sheetview/internal/model"
	"sheetview/internal/util/logx"
)

const (
	KeyActiveTab    = "activeTab"
	KeyGoogleData   = "googleData"
	KeyLocalData    = "localData"
	KeyGoogleConfig = "googleConfig"
)

const schemaVersion = 1

type envelope struct {
	V    int             `json:"v"`
	Data json.RawMessage `json:"data"`
}

// State is everything the UI restores at startup.
type State struct {
	ActiveTab    model.Tab
	Google       model.GoogleSnapshot
	Local        model.LocalSnapshot
	GoogleConfig model.SyncConfig
}

func DefaultState() State {
	return State{
		ActiveTab: model.TabGoogle,
		Google:    model.GoogleSnapshot{Headers: []string{}, Rows: []model.Row{}},
		Local:     model.LocalSnapshot{Headers: []string{}, Rows: []model.Row{}, Sheets: []string{}},
	}
}

// LoadState reads every key, falling back to the default for keys that are
// missing, corrupt or written by an unknown schema version.
func (s *Store) LoadState() State {
	st := DefaultState()
	var tab model.Tab
	if s.load(KeyActiveTab, &tab) && (tab == model.TabGoogle || tab == model.TabLocal) {
		st.ActiveTab = tab
	}
	var g model.GoogleSnapshot
	if s.load(KeyGoogleData, &g) {
		st.Google = g
	}
	var l model.LocalSnapshot
	if s.load(KeyLocalData, &l) {
		st.Local = l
	}
	var c model.SyncConfig
	if s.load(KeyGoogleConfig, &c) {
		st.GoogleConfig = c
	}
	return st
}

func (s *Store) load(key string, dst any) bool {
	b, ok, err := s.Get(key)
	if err != nil {
		logx.Warnf("store: read %s: %v", key, err)
		return false
	}
	if !ok {
		return false
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		logx.Warnf("store: %s: corrupt value, using default: %v", key, err)
		return false
	}
	if env.V != schemaVersion {
		logx.Warnf("store: %s: unknown version %d, using default", key, env.V)
		return false
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		logx.Warnf("store: %s: corrupt data, using default: %v", key, err)
		return false
	}
	return true
}

// SaveState writes every key of st.
func (s *Store) SaveState(st State) error {
	for _, kv := range []struct {
		key string
		v   any
	}{
		{KeyActiveTab, st.ActiveTab},
		{KeyGoogleData, st.Google},
		{KeyLocalData, st.Local},
		{KeyGoogleConfig, st.GoogleConfig},
	} {
		if err := s.Save(kv.key, kv.v); err != nil {
			return err
		}
	}
	return nil
}

// Save writes a single value in its versioned envelope.
func (s *Store) Save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	b, err := json.Marshal(envelope{V: schemaVersion, Data: data})
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	if err := s.Put(key, b); err != nil {
		return fmt.Errorf("store: write %s: %w", key, err)
	}
	return nil
}
