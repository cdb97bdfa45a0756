package margin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/etnz/margin/date"
	"github.com/etnz/margin/store"
)

// Keys of the account state in a store.
const (
	keyTrades   = "trades.jsonl"
	keySettings = "settings.yaml"
	keyState    = "state.json"
	keyLots     = "lots.json"
)

// KV is the persistence port used to save and load an account.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// accountState is the persisted part of an Account besides trades and settings.
type accountState struct {
	Method      CostBasisMethod  `json:"method"`
	Overrides   RateOverrides    `json:"overrides,omitempty"`
	Adjustments []CashAdjustment `json:"adjustments,omitempty"`
	LotMargins  map[string]Rate  `json:"lotMargins,omitempty"`
	Through     *date.Date       `json:"through,omitempty"`
	Ledger      InterestLedger   `json:"ledger"`
}

// SaveAccount writes the account state. Lots are saved for readers of the
// store, they are rebuilt from the trades on load.
func SaveAccount(ctx context.Context, kv KV, a *Account) error {
	var trades bytes.Buffer
	if err := EncodeTrades(&trades, a.trades); err != nil {
		return err
	}
	settings, err := EncodeSettings(a.settings)
	if err != nil {
		return err
	}
	st := accountState{
		Method:      a.method,
		Overrides:   a.overrides,
		Adjustments: a.adjustments,
		LotMargins:  a.lotMargins,
		Ledger:      a.ledger,
	}
	if !a.through.IsZero() {
		st.Through = &a.through
	}
	state, err := json.MarshalIndent(st, "", " ")
	if err != nil {
		return fmt.Errorf("marshal account state: %w", err)
	}
	lots, err := json.MarshalIndent(a.lots, "", " ")
	if err != nil {
		return fmt.Errorf("marshal lots: %w", err)
	}

	for _, e := range []struct {
		key   string
		value []byte
	}{
		{keySettings, settings},
		{keyTrades, trades.Bytes()},
		{keyState, state},
		{keyLots, lots},
	} {
		if err := kv.Set(ctx, e.key, e.value); err != nil {
			return fmt.Errorf("save %s: %w", e.key, err)
		}
	}
	return nil
}

// LoadAccount reads an account saved by SaveAccount and brings its ledger up
// to today. Saved ledger entries are kept as is, only the following days are
// accrued. A store without any account yields a new account with the default
// settings.
func LoadAccount(ctx context.Context, kv KV, today date.Date) (*Account, error) {
	get := func(key string) ([]byte, bool, error) {
		data, err := kv.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("load %s: %w", key, err)
		}
		return data, true, nil
	}

	settings := DefaultSettings()
	if data, ok, err := get(keySettings); err != nil {
		return nil, err
	} else if ok {
		if settings, err = DecodeSettings(data); err != nil {
			return nil, fmt.Errorf("load %s: %w", keySettings, err)
		}
	} else {
		log.Println("no saved settings, using the default settings")
	}

	var st accountState
	if data, ok, err := get(keyState); err != nil {
		return nil, err
	} else if ok {
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, fmt.Errorf("load %s: %w", keyState, err)
		}
	}

	var trades []Trade
	if data, ok, err := get(keyTrades); err != nil {
		return nil, err
	} else if ok {
		if trades, err = DecodeTrades(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("load %s: %w", keyTrades, err)
		}
	}

	a, err := NewAccount(settings, st.Method)
	if err != nil {
		return nil, err
	}
	a.trades = trades
	a.adjustments = st.Adjustments
	a.ledger = st.Ledger
	if st.Overrides != nil {
		a.overrides = st.Overrides
	}
	if st.LotMargins != nil {
		a.lotMargins = st.LotMargins
	}
	if st.Through != nil {
		a.through = *st.Through
	}
	// roll forward, or rebuild everything when nothing was accrued yet.
	from := a.next()
	if len(a.ledger) == 0 {
		from = date.Date{}
	}
	if err := a.rebuild(from, today); err != nil {
		return nil, fmt.Errorf("invalid saved account: %w", err)
	}
	return a, nil
}
