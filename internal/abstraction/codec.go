package abstraction

import (
	"fmt"
	"io"

	"github.com/tinylib/msgp/msgp"

	"github.com/lox/holdem-cfr/poker"
)

// EncodePoints writes fingerprints as msgpack:
// [[key, [hole...], [board...], [hist...]], ...].
func EncodePoints(w io.Writer, points []Fingerprint) error {
	mw := msgp.NewWriter(w)
	if err := mw.WriteArrayHeader(uint32(len(points))); err != nil {
		return err
	}
	for _, p := range points {
		if err := mw.WriteArrayHeader(4); err != nil {
			return err
		}
		if err := mw.WriteUint64(p.Key); err != nil {
			return err
		}
		if err := writeCards(mw, p.Hole); err != nil {
			return err
		}
		if err := writeCards(mw, p.Board); err != nil {
			return err
		}
		if err := writeFloats(mw, p.Hist); err != nil {
			return err
		}
	}
	return mw.Flush()
}

// DecodePoints reads fingerprints written by EncodePoints.
func DecodePoints(r io.Reader) ([]Fingerprint, error) {
	mr := msgp.NewReader(r)
	n, err := mr.ReadArrayHeader()
	if err != nil {
		return nil, fmt.Errorf("read points header: %w", err)
	}
	points := make([]Fingerprint, n)
	for i := range points {
		fields, err := mr.ReadArrayHeader()
		if err != nil {
			return nil, fmt.Errorf("read point %d: %w", i, err)
		}
		if fields != 4 {
			return nil, fmt.Errorf("point %d has %d fields", i, fields)
		}
		p := &points[i]
		if p.Key, err = mr.ReadUint64(); err != nil {
			return nil, fmt.Errorf("read point %d key: %w", i, err)
		}
		if p.Hole, err = readCards(mr); err != nil {
			return nil, fmt.Errorf("read point %d hole: %w", i, err)
		}
		if p.Board, err = readCards(mr); err != nil {
			return nil, fmt.Errorf("read point %d board: %w", i, err)
		}
		if p.Hist, err = readFloats(mr); err != nil {
			return nil, fmt.Errorf("read point %d histogram: %w", i, err)
		}
	}
	return points, nil
}

// EncodeClustering writes [[assign...], [[centroid...], ...]].
func EncodeClustering(w io.Writer, c Clustering) error {
	mw := msgp.NewWriter(w)
	if err := mw.WriteArrayHeader(2); err != nil {
		return err
	}
	if err := mw.WriteArrayHeader(uint32(len(c.Assign))); err != nil {
		return err
	}
	for _, a := range c.Assign {
		if err := mw.WriteInt(a); err != nil {
			return err
		}
	}
	if err := mw.WriteArrayHeader(uint32(len(c.Centroids))); err != nil {
		return err
	}
	for _, centroid := range c.Centroids {
		if err := writeFloats(mw, centroid); err != nil {
			return err
		}
	}
	return mw.Flush()
}

// DecodeClustering reads a clustering written by EncodeClustering.
func DecodeClustering(r io.Reader) (Clustering, error) {
	mr := msgp.NewReader(r)
	var c Clustering
	n, err := mr.ReadArrayHeader()
	if err != nil {
		return c, fmt.Errorf("read clustering header: %w", err)
	}
	if n != 2 {
		return c, fmt.Errorf("clustering has %d fields", n)
	}
	na, err := mr.ReadArrayHeader()
	if err != nil {
		return c, fmt.Errorf("read assignments: %w", err)
	}
	c.Assign = make([]int, na)
	for i := range c.Assign {
		if c.Assign[i], err = mr.ReadInt(); err != nil {
			return c, fmt.Errorf("read assignment %d: %w", i, err)
		}
	}
	nc, err := mr.ReadArrayHeader()
	if err != nil {
		return c, fmt.Errorf("read centroids: %w", err)
	}
	c.Centroids = make([][]float64, nc)
	for i := range c.Centroids {
		if c.Centroids[i], err = readFloats(mr); err != nil {
			return c, fmt.Errorf("read centroid %d: %w", i, err)
		}
	}
	return c, nil
}

func writeCards(mw *msgp.Writer, cards []poker.Card) error {
	if err := mw.WriteArrayHeader(uint32(len(cards))); err != nil {
		return err
	}
	for _, c := range cards {
		if err := mw.WriteUint8(uint8(c)); err != nil {
			return err
		}
	}
	return nil
}

func readCards(mr *msgp.Reader) ([]poker.Card, error) {
	n, err := mr.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	cards := make([]poker.Card, n)
	for i := range cards {
		v, err := mr.ReadUint8()
		if err != nil {
			return nil, err
		}
		if cards[i] = poker.Card(v); !cards[i].Valid() {
			return nil, fmt.Errorf("invalid card %d", v)
		}
	}
	return cards, nil
}

func writeFloats(mw *msgp.Writer, xs []float64) error {
	if err := mw.WriteArrayHeader(uint32(len(xs))); err != nil {
		return err
	}
	for _, x := range xs {
		if err := mw.WriteFloat64(x); err != nil {
			return err
		}
	}
	return nil
}

func readFloats(mr *msgp.Reader) ([]float64, error) {
	n, err := mr.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	xs := make([]float64, n)
	for i := range xs {
		if xs[i], err = mr.ReadFloat64(); err != nil {
			return nil, err
		}
	}
	return xs, nil
}
