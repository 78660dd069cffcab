package ws

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Encoder turns downstream envelopes into wire frames: plain JSON for text
// clients, zstd(protobuf Struct) for binary clients. Safe for concurrent use.
type Encoder struct {
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
}

// Frame holds one message in both wire formats.
type Frame struct {
	Text   []byte
	Binary []byte
}

// NewEncoder creates a new Encoder with Zstd compression.
func NewEncoder() (*Encoder, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Encoder{zstdEncoder: enc, zstdDecoder: dec}, nil
}

// EncodeJSON renders an envelope as a text frame.
func (e *Encoder) EncodeJSON(msg map[string]any) ([]byte, error) {
	return json.Marshal(msg)
}

// EncodeBinary renders an envelope as a binary frame.
func (e *Encoder) EncodeBinary(msg map[string]any) ([]byte, error) {
	// 1. JSON-shaped map to a protobuf Struct
	s, err := structpb.NewStruct(msg)
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}

	// 2. Serialize to protobuf bytes
	pbData, err := proto.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal protobuf: %w", err)
	}

	// 3. Compress with Zstd
	return e.zstdEncoder.EncodeAll(pbData, nil), nil
}

// Encode renders both formats at once, for broadcasts.
func (e *Encoder) Encode(msg map[string]any) (Frame, error) {
	text, err := e.EncodeJSON(msg)
	if err != nil {
		return Frame{}, err
	}
	bin, err := e.EncodeBinary(msg)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Text: text, Binary: bin}, nil
}

// DecodeBinary reverses EncodeBinary.
func (e *Encoder) DecodeBinary(frame []byte) (map[string]any, error) {
	pbData, err := e.zstdDecoder.DecodeAll(frame, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	var s structpb.Struct
	if err := proto.Unmarshal(pbData, &s); err != nil {
		return nil, fmt.Errorf("unmarshal protobuf: %w", err)
	}
	return s.AsMap(), nil
}

// Close releases encoder resources.
func (e *Encoder) Close() {
	if e.zstdEncoder != nil {
		e.zstdEncoder.Close()
	}
	if e.zstdDecoder != nil {
		e.zstdDecoder.Close()
	}
}
