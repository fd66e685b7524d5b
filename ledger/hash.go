package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

const hashDomain = "agriblock/block/v1"

// GenesisPreviousHash is the previous hash of the genesis block.
const GenesisPreviousHash = "0000000000000000000000000000000000000000000000000000000000000000"

// canonicalBytes encodes the hashed content of a block. Integers are
// big-endian with a fixed width and every string carries a 4-byte length, so
// two different blocks can never encode to the same bytes.
func canonicalBytes(b Block) []byte {
	var buf bytes.Buffer
	buf.WriteString(hashDomain)
	writeUint64(&buf, b.Index)
	writeString(&buf, b.PreviousHash)
	writeUint64(&buf, uint64(b.Timestamp))
	writeUint32(&buf, uint32(len(b.Transactions)))
	for _, tx := range b.Transactions {
		writeString(&buf, tx.Sender)
		writeString(&buf, tx.Recipient)
		writeString(&buf, tx.Data)
		writeString(&buf, tx.BatchID)
		writeString(&buf, tx.EventType)
	}
	return buf.Bytes()
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

// ComputeHash returns the SHA-256 digest of the block content as lowercase
// hex. The stored Hash and Attestation are not part of the content.
func (b Block) ComputeHash() string {
	sum := sha256.Sum256(canonicalBytes(b))
	return hex.EncodeToString(sum[:])
}
