package crypto

import (
	"path/filepath"
	"testing"
)

func TestIdentityRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	id, err := key.Identity()
	if err != nil {
		t.Fatalf("derive identity: %v", err)
	}
	parsed, err := ParseIdentity(id.String())
	if err != nil {
		t.Fatalf("parse identity: %v", err)
	}
	if parsed != id {
		t.Fatalf("identity round trip mismatch: %s != %s", parsed, id)
	}
	if _, err := ParseIdentity("0x" + id.String()); err != nil {
		t.Fatalf("prefixed identity rejected: %v", err)
	}
	if _, err := ParseIdentity("abcd"); err == nil {
		t.Fatal("short identity accepted")
	}
}

func TestPrivateKeyHexRestore(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	restored, err := PrivateKeyFromHex(key.Hex())
	if err != nil {
		t.Fatalf("restore key: %v", err)
	}
	a, _ := key.Identity()
	b, _ := restored.Identity()
	if a != b {
		t.Fatalf("restored key derives different identity: %s != %s", a, b)
	}
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "keys", "node.json")
	if err := SaveToKeystore(path, key, "passphrase"); err != nil {
		t.Fatalf("save keystore: %v", err)
	}
	loaded, err := LoadFromKeystore(path, "passphrase")
	if err != nil {
		t.Fatalf("load keystore: %v", err)
	}
	a, _ := key.Identity()
	b, _ := loaded.Identity()
	if a != b {
		t.Fatalf("keystore round trip mismatch: %s != %s", a, b)
	}
	if _, err := LoadFromKeystore(path, "wrong"); err == nil {
		t.Fatal("wrong passphrase accepted")
	}
}
