package safecli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/maidsafe/safeload/internal/core/domain"
)

var xorURLPattern = regexp.MustCompile(`safe://[^\s"',\]\}]+`)

type keyPair struct {
	PK string `json:"pk"`
	SK string `json:"sk"`
}

type keysObject struct {
	XORURL  string   `json:"xorurl"`
	KeyPair *keyPair `json:"key_pair"`
	PK      string   `json:"pk"`
	SK      string   `json:"sk"`
}

// ParseAccount reads the JSON printed by `safe keys create --json`.
// Accepts the tuple form ["safe://...", {"pk": ..., "sk": ...}] and a flat object.
func ParseAccount(data []byte) (*domain.Account, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNoOutput
	}

	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err == nil {
		account := &domain.Account{}
		if len(tuple) > 0 {
			_ = json.Unmarshal(tuple[0], &account.XORURL)
		}
		if len(tuple) > 1 {
			var kp keyPair
			if err := json.Unmarshal(tuple[1], &kp); err == nil {
				account.PublicKey = kp.PK
				account.SecretKey = kp.SK
			}
		}
		return account, nil
	}

	var obj keysObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("unrecognised keys output: %w", err)
	}

	account := &domain.Account{XORURL: obj.XORURL, PublicKey: obj.PK, SecretKey: obj.SK}
	if obj.KeyPair != nil {
		account.PublicKey = obj.KeyPair.PK
		account.SecretKey = obj.KeyPair.SK
	}
	return account, nil
}

// ParseXORURL extracts the content address from an upload's JSON output.
// Falls back to the first safe:// URL found anywhere in the output.
func ParseXORURL(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}

	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err == nil && len(tuple) > 0 {
		var url string
		if err := json.Unmarshal(tuple[0], &url); err == nil && url != "" {
			return url
		}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err == nil {
		for _, key := range []string{"xorurl", "url", "address"} {
			var url string
			if raw, ok := obj[key]; ok && json.Unmarshal(raw, &url) == nil && url != "" {
				return url
			}
		}
	}

	return string(xorURLPattern.Find(data))
}
