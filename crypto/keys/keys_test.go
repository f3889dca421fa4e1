package keys

import (
	"io/ioutil"
	"os"
	"path"
	"reflect"
	"testing"
)

func TestSimpleKeyfile(t *testing.T) {
	dir, err := ioutil.TempDir("", "dagsync-keys")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer os.RemoveAll(dir)

	simpleKeyfile := NewSimpleKeyfile(path.Join(dir, "priv_key"))

	if key, err := simpleKeyfile.ReadKey(); err == nil {
		t.Fatalf("ReadKey should error on a missing file, got key %v", key)
	}

	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if err := simpleKeyfile.WriteKey(key); err != nil {
		t.Fatalf("err: %v", err)
	}

	nKey, err := simpleKeyfile.ReadKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(*nKey, *key) {
		t.Fatalf("keys do not match")
	}
}

func TestFilePermissions(t *testing.T) {
	dir, err := ioutil.TempDir("", "dagsync-keys")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer os.RemoveAll(dir)

	key, _ := GenerateECDSAKey()
	rawKey := PrivateKeyHex(key)

	badKeyPath := path.Join(dir, "priv_key_bad")
	shouldErr := []os.FileMode{0777, 0766, 0744, 0677, 0666, 0644, 0477, 0466, 0444}
	for _, fm := range shouldErr {
		ioutil.WriteFile(badKeyPath, []byte(rawKey), fm)
		badKeyFile := NewSimpleKeyfile(badKeyPath)
		if _, err := badKeyFile.ReadKey(); err == nil {
			t.Fatalf("%o: expected permissions error", fm)
		}
	}

	goodKeyPath := path.Join(dir, "priv_key_good")
	shouldNotErr := []os.FileMode{0700, 0600, 0500, 0400}
	for _, fm := range shouldNotErr {
		ioutil.WriteFile(goodKeyPath, []byte(rawKey), fm)
		goodKeyFile := NewSimpleKeyfile(goodKeyPath)
		if _, err := goodKeyFile.ReadKey(); err != nil {
			t.Fatalf("%o: unexpected error %v", fm, err)
		}
	}
}

func TestPublicKeyRoundTrip(t *testing.T) {
	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	marshaled := FromPublicKey(&key.PublicKey)
	recovered := ToPublicKey(marshaled)

	if recovered.X.Cmp(key.PublicKey.X) != 0 || recovered.Y.Cmp(key.PublicKey.Y) != 0 {
		t.Fatalf("public key did not round-trip through FromPublicKey/ToPublicKey")
	}

	if PublicKeyHex(&key.PublicKey) != PublicKeyHex(recovered) {
		t.Fatalf("PublicKeyHex not stable across round-trip")
	}
}

func TestPrivateKeyRoundTrip(t *testing.T) {
	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	dump := DumpPrivateKey(key)
	parsed, err := ParsePrivateKey(dump)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if parsed.D.Cmp(key.D) != 0 {
		t.Fatalf("private scalar did not round-trip")
	}
}
