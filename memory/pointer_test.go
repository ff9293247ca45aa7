package memory

import (
	"bytes"
	"encoding/binary"
	"testing"

	"gitlab.com/stephen-fox/ropkit/arch"
)

func TestPointerMakerForX86_32_FromUint(t *testing.T) {
	pm := PointerMakerForX86_32()
	pointer := pm.FromUint(0xdeadbeef)
	exp := []byte{0xef, 0xbe, 0xad, 0xde}
	if !bytes.Equal(pointer.Bytes(), exp) {
		t.Fatalf("expected 0x%x - got 0x%x", exp, pointer.Bytes())
	}
}

func TestPointerMakerForX86_32_FromUint_Truncates(t *testing.T) {
	pm := PointerMakerForX86_32()
	pointer := pm.FromUint(0x1122334455)
	if pointer.Uint() != 0x22334455 {
		t.Fatalf("expected 0x22334455 - got 0x%x", pointer.Uint())
	}
}

func TestPointerMakerForX68_32_FromHexBytes(t *testing.T) {
	exp := []byte{0xef, 0xbe, 0xad, 0x00}

	pm := PointerMakerForX86_32()
	pointer, err := pm.FromHexBytes([]byte("0xadbeef"), binary.BigEndian)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(pointer.Bytes(), exp) {
		t.Fatalf("expected 0x%x - got 0x%x", exp, pointer.Bytes())
	}

	pointer, err = pm.FromHexBytes([]byte("0xefbead"), binary.LittleEndian)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(pointer.Bytes(), exp) {
		t.Fatalf("expected 0x%x - got 0x%x", exp, pointer.Bytes())
	}
}

func TestPointerMakerForX86_64_FromUint(t *testing.T) {
	pm := PointerMakerForX86_64()
	pointer := pm.FromUint(0x00000000deadbeef)
	exp := []byte{0xef, 0xbe, 0xad, 0xde, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(pointer.Bytes(), exp) {
		t.Fatalf("expected 0x%x - got 0x%x", exp, pointer.Bytes())
	}
}

func TestPointerMakerForX68_64_FromHexBytes(t *testing.T) {
	exp := []byte{0xef, 0xbe, 0xad, 0xde, 0x00, 0x00, 0x00, 0x00}

	pm := PointerMakerForX86_64()
	pointer, err := pm.FromHexBytes([]byte("0x00000000deadbeef"), binary.BigEndian)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(pointer.Bytes(), exp) {
		t.Fatalf("expected 0x%x - got 0x%x", exp, pointer.Bytes())
	}

	pointer, err = pm.FromHexBytes([]byte("0xefbeadde00000000"), binary.LittleEndian)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(pointer.Bytes(), exp) {
		t.Fatalf("expected 0x%x - got 0x%x", exp, pointer.Bytes())
	}
}

func TestPointerMakerFor_UnknownArch(t *testing.T) {
	_, err := PointerMakerFor(arch.Arch("sparc"))
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestPackUnpack(t *testing.T) {
	for n := 1; n <= 8; n++ {
		for _, bo := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
			v := uint64(0x0102030405060708) & (1<<(uint(n)*8) - 1)
			if n == 8 {
				v = 0x0102030405060708
			}

			packed := Pack(v, n, bo)
			if len(packed) != n {
				t.Fatalf("expected %d bytes - got %d", n, len(packed))
			}

			unpacked, err := Unpack(packed, bo)
			if err != nil {
				t.Fatal(err)
			}

			if unpacked != v {
				t.Fatalf("%s n=%d: expected 0x%x - got 0x%x", bo, n, v, unpacked)
			}
		}
	}
}

func TestUnpack_BadSize(t *testing.T) {
	_, err := Unpack(nil, binary.LittleEndian)
	if err == nil {
		t.Fatal("expected an error for zero bytes")
	}

	_, err = Unpack(make([]byte, 9), binary.LittleEndian)
	if err == nil {
		t.Fatal("expected an error for nine bytes")
	}
}
