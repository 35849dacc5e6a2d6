package services

import (
	"bytes"
	"encoding/binary"
	"encoding/json"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"

	"matatu_manager/internal/apperr"
)

// EncodeGeometry parses a GeoJSON LineString, given either as an object or
// as a JSON string holding one, and returns it as WKB.
func EncodeGeometry(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, invalidGeometry(err)
		}
		if s == "" {
			return nil, nil
		}
		raw = []byte(s)
	}

	var g geom.T
	if err := gjson.Unmarshal(raw, &g); err != nil {
		return nil, invalidGeometry(err)
	}
	line, ok := g.(*geom.LineString)
	if !ok || line.NumCoords() < 2 {
		return nil, apperr.ValidationError{Kind: "invalid_geometry", Field: "geometry", Msg: "must be a LineString with at least two points"}
	}
	return wkb.Marshal(line, binary.LittleEndian)
}

// DecodeGeometry turns stored WKB back into GeoJSON. Empty input gives nil.
func DecodeGeometry(wkbBytes []byte) (json.RawMessage, error) {
	if len(wkbBytes) == 0 {
		return nil, nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return nil, err
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

func invalidGeometry(err error) error {
	return apperr.ValidationError{Kind: "invalid_geometry", Field: "geometry", Msg: "must be valid GeoJSON", Err: err}
}
