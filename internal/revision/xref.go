package revision

import (
	"bufio"
	"bytes"
	"errors"
	"regexp"
	"strconv"

	"github.com/digitorus/svtpades/internal/core"
)

// ErrUnsupportedXref is returned when a revision's newest cross-reference
// section is not a classic table (e.g. a compressed cross-reference
// stream). Discover treats this the same as any other reparse failure and
// discards the revision.
var ErrUnsupportedXref = errors.New("unsupported cross-reference format")

var (
	xrefSectionRe      = regexp.MustCompile(`(?s)\bxref\r?\n(.*?)\btrailer\b`)
	subsectionHeaderRe = regexp.MustCompile(`^(\d+)\s+(\d+)\s*$`)
	rootRefRe          = regexp.MustCompile(`/Root\s+(\d+)\s+(\d+)\s+R`)
)

// classicXrefOffsets parses the last "xref ... trailer" block in a revision
// prefix's bytes, returning the offset of every object it lists. Only the
// classic table format (sign/pdfxref_table.go's write-side counterpart) is
// supported; cross-reference streams (sign/pdfxref_stream.go's counterpart)
// are not decoded here — see DESIGN.md for the scope decision.
func classicXrefOffsets(revisionBytes []byte) (map[core.ObjectKey]int64, error) {
	matches := xrefSectionRe.FindAllSubmatchIndex(revisionBytes, -1)
	if len(matches) == 0 {
		return nil, ErrUnsupportedXref
	}
	last := matches[len(matches)-1]
	body := revisionBytes[last[2]:last[3]]

	offsets := make(map[core.ObjectKey]int64)
	scanner := bufio.NewScanner(bytes.NewReader(body))
	var startObj, count, idx int
	haveHeader := false

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if m := subsectionHeaderRe.FindStringSubmatch(line); m != nil {
			startObj, _ = strconv.Atoi(m[1])
			count, _ = strconv.Atoi(m[2])
			haveHeader = true
			idx = 0
			continue
		}
		if !haveHeader || idx >= count {
			continue
		}
		if len(line) < 18 {
			idx++
			continue
		}
		offset, errOff := strconv.ParseInt(line[0:10], 10, 64)
		gen, errGen := strconv.Atoi(line[11:16])
		kind := line[17]
		idx++
		if errOff != nil || errGen != nil || kind != 'n' {
			continue
		}
		offsets[core.ObjectKey{Number: uint32(startObj + idx - 1), Generation: uint16(gen)}] = offset
	}

	if len(offsets) == 0 {
		return nil, ErrUnsupportedXref
	}
	return offsets, nil
}

// rootObjectID extracts the /Root indirect reference's object number and
// generation directly from the trailer dictionary's raw bytes, since the
// pdf library's Value.Key/Index API resolves indirect references
// transparently and does not expose the unresolved (number, generation)
// pair for a dict entry.
func rootObjectID(revisionBytes []byte) (core.ObjectKey, bool) {
	matches := rootRefRe.FindAllSubmatch(revisionBytes, -1)
	if len(matches) == 0 {
		return core.ObjectKey{}, false
	}
	last := matches[len(matches)-1]
	num, err1 := strconv.ParseUint(string(last[1]), 10, 32)
	gen, err2 := strconv.ParseUint(string(last[2]), 10, 16)
	if err1 != nil || err2 != nil {
		return core.ObjectKey{}, false
	}
	return core.ObjectKey{Number: uint32(num), Generation: uint16(gen)}, true
}
