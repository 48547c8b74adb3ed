package util

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"hash"
	"hash/crc32"
)

// ContentHash returns a short hex digest of the given text parts,
// suitable for ETag values and cache keys.
func ContentHash(parts ...string) string {
	h := crc32.NewIEEE()
	for _, part := range parts {
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func jsonHash(objs ...any) (hash.Hash32, error) {
	return crc32Hash(func(a any) []byte {
		b, err := json.Marshal(a)
		if err != nil {
			return nil
		}
		return b
	}, objs...)
}

func JsonHash(objs ...any) (uint32, error) {
	h, err := jsonHash(objs...)
	if err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}

func JsonHashBytes(objs ...any) ([]byte, error) {
	h, err := jsonHash(objs...)
	if err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

func crc32Hash(encoder func(any) []byte, objs ...any) (hash.Hash32, error) {
	h := crc32.NewIEEE()
	if len(objs) == 0 {
		return nil, errors.New("no values provided")
	}
	for _, r := range objs {
		b := bytes.Buffer{}
		if _, err := b.Write(encoder(r)); err != nil {
			return nil, err
		}
		h.Write(b.Bytes())
	}
	return h, nil
}
