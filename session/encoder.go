package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const sessionFormatVersionV1 = 1

// Encode serializes a session to the compact binary wire format stored in
// Redis. The SessionID is the Redis key and is not part of the payload.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersionV1)

	for _, field := range []struct {
		name  string
		value string
	}{
		{"userID", s.UserID},
		{"username", s.Username},
		{"fullName", s.FullName},
	} {
		if len(field.value) > 255 {
			return nil, errors.New(field.name + " too long")
		}
		buf.WriteByte(byte(len(field.value)))
		buf.WriteString(field.value)
	}

	if s.LoggedIn {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	for _, ts := range []int64{s.LoginTime, s.CreatedAt, s.ExpiresAt} {
		if err := binary.Write(&buf, binary.BigEndian, ts); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Decode parses the binary wire format produced by [Encode].
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != sessionFormatVersionV1 {
		return nil, errors.New("invalid session version")
	}

	s := &Session{}

	for _, target := range []*string{&s.UserID, &s.Username, &s.FullName} {
		length, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}
		value := make([]byte, length)
		if _, err := io.ReadFull(reader, value); err != nil {
			return nil, err
		}
		*target = string(value)
	}

	loggedIn, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	s.LoggedIn = loggedIn == 1

	for _, target := range []*int64{&s.LoginTime, &s.CreatedAt, &s.ExpiresAt} {
		if err := binary.Read(reader, binary.BigEndian, target); err != nil {
			return nil, err
		}
	}

	return s, nil
}
