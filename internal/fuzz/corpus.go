package fuzz

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dekarrin/gramq/internal/gqerrors"
	"github.com/dekarrin/gramq/internal/grammar"
	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
)

// Entry is one generated word and its CYK label.
type Entry struct {
	Text     string
	Tokens   []string
	Accepted bool

	// Injected holds the positions in Tokens of terminals that were drawn
	// from the alphabet rather than from the bigram relation.
	Injected []int
}

// IsInjected returns whether the token at position i was injected.
func (e Entry) IsInjected(i int) bool {
	for _, idx := range e.Injected {
		if idx == i {
			return true
		}
	}
	return false
}

func (e Entry) MarshalBinary() ([]byte, error) {
	var data []byte

	data = append(data, rezi.EncString(e.Text)...)
	data = append(data, rezi.EncInt(len(e.Tokens))...)
	for _, tok := range e.Tokens {
		data = append(data, rezi.EncString(tok)...)
	}
	label := 0
	if e.Accepted {
		label = 1
	}
	data = append(data, rezi.EncInt(label)...)
	data = append(data, rezi.EncInt(len(e.Injected))...)
	for _, idx := range e.Injected {
		data = append(data, rezi.EncInt(idx)...)
	}

	return data, nil
}

func (e *Entry) UnmarshalBinary(data []byte) error {
	var err error
	var n int

	e.Text, n, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("text: %w", err)
	}
	data = data[n:]

	var tokCount int
	tokCount, n, err = decCount(data)
	if err != nil {
		return gqerrors.Newf([]error{gqerrors.ErrMalformedCorpus, err}, "token count")
	}
	data = data[n:]

	e.Tokens = make([]string, tokCount)
	for i := range e.Tokens {
		e.Tokens[i], n, err = rezi.DecString(data)
		if err != nil {
			return fmt.Errorf("token %d: %w", i, err)
		}
		data = data[n:]
	}

	var label int
	label, n, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("label: %w", err)
	}
	data = data[n:]
	e.Accepted = label != 0

	var injCount int
	injCount, n, err = decCount(data)
	if err != nil {
		return gqerrors.Newf([]error{gqerrors.ErrMalformedCorpus, err}, "injected count")
	}
	data = data[n:]

	e.Injected = nil
	for i := 0; i < injCount; i++ {
		var idx int
		idx, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("injected %d: %w", i, err)
		}
		data = data[n:]
		e.Injected = append(e.Injected, idx)
	}

	return nil
}

// Corpus is a labeled set of generated words.
type Corpus struct {
	ID      uuid.UUID
	Seed    int64
	Entries []Entry
}

// Len returns the number of entries.
func (c Corpus) Len() int {
	return len(c.Entries)
}

// Positives returns the 1-based positions of every entry that CYK accepted.
func (c Corpus) Positives() []int {
	var pos []int
	for i := range c.Entries {
		if c.Entries[i].Accepted {
			pos = append(pos, i+1)
		}
	}
	return pos
}

// WriteLabeled writes one "word label" line per entry, with label 1 for an
// accepted word and 0 for a rejected one.
func (c Corpus) WriteLabeled(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, e := range c.Entries {
		label := 0
		if e.Accepted {
			label = 1
		}
		if _, err := fmt.Fprintf(bw, "%s %d\n", e.Text, label); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteVerify writes each word on its own line with no label, for replay.
func (c Corpus) WriteVerify(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, e := range c.Entries {
		if _, err := fmt.Fprintf(bw, "%s\n", e.Text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadLabeled reads a corpus in the format written by WriteLabeled. The
// returned Corpus has a fresh ID, and no entry records injected positions.
func ReadLabeled(r io.Reader) (Corpus, error) {
	c := Corpus{ID: uuid.New()}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		sep := strings.LastIndexByte(line, ' ')
		if sep < 0 {
			return Corpus{}, gqerrors.Newf([]error{gqerrors.ErrMalformedCorpus}, "line %d: missing label", lineNo)
		}
		text := strings.TrimSpace(line[:sep])
		label := line[sep+1:]

		var accepted bool
		switch label {
		case "1":
			accepted = true
		case "0":
			accepted = false
		default:
			return Corpus{}, gqerrors.Newf([]error{gqerrors.ErrMalformedCorpus}, "line %d: label must be 0 or 1, not %q", lineNo, label)
		}

		c.Entries = append(c.Entries, Entry{
			Text:     text,
			Tokens:   grammar.TokenizeWord(text),
			Accepted: accepted,
		})
	}
	if err := sc.Err(); err != nil {
		return Corpus{}, err
	}

	return c, nil
}

// MarshalBinary encodes c with rezi. Seeds are stored as int, so a 64-bit
// platform is needed to keep every seed intact.
func (c Corpus) MarshalBinary() ([]byte, error) {
	var data []byte

	data = append(data, rezi.EncString(c.ID.String())...)
	data = append(data, rezi.EncInt(int(c.Seed))...)
	data = append(data, rezi.EncInt(len(c.Entries))...)
	for i := range c.Entries {
		data = append(data, rezi.EncBinary(c.Entries[i])...)
	}

	return data, nil
}

func (c *Corpus) UnmarshalBinary(data []byte) error {
	var err error
	var n int

	var idStr string
	idStr, n, err = rezi.DecString(data)
	if err != nil {
		return gqerrors.Newf([]error{gqerrors.ErrMalformedCorpus, err}, "id")
	}
	data = data[n:]
	c.ID, err = uuid.Parse(idStr)
	if err != nil {
		return gqerrors.Newf([]error{gqerrors.ErrMalformedCorpus, err}, "id")
	}

	var seed int
	seed, n, err = rezi.DecInt(data)
	if err != nil {
		return gqerrors.Newf([]error{gqerrors.ErrMalformedCorpus, err}, "seed")
	}
	data = data[n:]
	c.Seed = int64(seed)

	var count int
	count, n, err = decCount(data)
	if err != nil {
		return gqerrors.Newf([]error{gqerrors.ErrMalformedCorpus, err}, "entry count")
	}
	data = data[n:]

	c.Entries = make([]Entry, count)
	for i := range c.Entries {
		// rezi slices by the length prefix without checking its sign
		if size, _, err := rezi.DecInt(data); err == nil && size < 0 {
			return gqerrors.Newf([]error{gqerrors.ErrMalformedCorpus}, "entry %d: negative length %d", i, size)
		}
		n, err = rezi.DecBinary(data, &c.Entries[i])
		if err != nil {
			return gqerrors.Newf([]error{gqerrors.ErrMalformedCorpus, err}, "entry %d", i)
		}
		data = data[n:]
	}

	return nil
}

// decCount decodes an element count. Every encoded element takes at least one
// byte, so a count larger than what is left of data cannot be valid and is
// rejected before anything is allocated for it.
func decCount(data []byte) (int, int, error) {
	count, n, err := rezi.DecInt(data)
	if err != nil {
		return 0, 0, err
	}
	if count < 0 {
		return 0, 0, fmt.Errorf("count is negative: %d", count)
	}
	if count > len(data)-n {
		return 0, 0, fmt.Errorf("count %d exceeds remaining %d bytes", count, len(data)-n)
	}
	return count, n, nil
}
