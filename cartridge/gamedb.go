package cartridge

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/meadori/nescore/system"
)

//go:embed gamedb.csv
var embeddedGameDB string

// GameInfo is a game database record.
type GameInfo struct {
	CRC32     uint32
	Region    system.Region
	Mapper    uint16
	Submapper byte
}

// GameDB is a table of GameInfo records sorted by checksum.
type GameDB struct {
	games []GameInfo
}

// DefaultGameDB is consulted when loading cartridges.
var DefaultGameDB = mustParseGameDB(embeddedGameDB)

func mustParseGameDB(s string) *GameDB {
	db, err := ParseGameDB(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("cartridge: embedded game database: %v", err))
	}
	return db
}

// LoadGameDB reads a game database from a CSV file.
func LoadGameDB(path string) (*GameDB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open game database: %w", err)
	}
	defer f.Close()
	return ParseGameDB(f)
}

// ParseGameDB parses "crc32,region,mapper,submapper" records. Lines starting
// with '#' are ignored.
func ParseGameDB(r io.Reader) (*GameDB, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	db := &GameDB{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse game database: %w", err)
		}
		game, err := parseGameInfo(rec)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("game database line %d: %w", line, err)
		}
		db.games = append(db.games, game)
	}
	db.sort()
	return db, nil
}

func parseGameInfo(rec []string) (GameInfo, error) {
	crc, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(rec[0]), "0x"), 16, 32)
	if err != nil {
		return GameInfo{}, fmt.Errorf("invalid crc32 %q: %w", rec[0], err)
	}
	region, err := system.ParseRegion(rec[1])
	if err != nil {
		return GameInfo{}, err
	}
	mapperNum, err := strconv.ParseUint(rec[2], 10, 16)
	if err != nil {
		return GameInfo{}, fmt.Errorf("invalid mapper %q: %w", rec[2], err)
	}
	sub, err := strconv.ParseUint(rec[3], 10, 4)
	if err != nil {
		return GameInfo{}, fmt.Errorf("invalid submapper %q: %w", rec[3], err)
	}
	return GameInfo{CRC32: uint32(crc), Region: region, Mapper: uint16(mapperNum), Submapper: byte(sub)}, nil
}

func (db *GameDB) sort() {
	sort.Slice(db.games, func(i, j int) bool { return db.games[i].CRC32 < db.games[j].CRC32 })
}

// Len returns the number of records.
func (db *GameDB) Len() int {
	return len(db.games)
}

// Merge adds the records of other, replacing records with the same checksum.
func (db *GameDB) Merge(other *GameDB) {
	for _, g := range other.games {
		if i, ok := db.search(g.CRC32); ok {
			db.games[i] = g
			continue
		}
		db.games = append(db.games, g)
		db.sort()
	}
}

func (db *GameDB) search(crc uint32) (int, bool) {
	i := sort.Search(len(db.games), func(i int) bool { return db.games[i].CRC32 >= crc })
	return i, i < len(db.games) && db.games[i].CRC32 == crc
}

// Lookup finds the record for a checksum.
func (db *GameDB) Lookup(crc uint32) (GameInfo, bool) {
	if db == nil {
		return GameInfo{}, false
	}
	i, ok := db.search(crc)
	if !ok {
		return GameInfo{}, false
	}
	return db.games[i], true
}

// Checksum returns the CRC32 of PRG ROM, continued over CHR ROM when present.
func Checksum(prg, chr []byte) uint32 {
	crc := crc32.ChecksumIEEE(prg)
	if len(chr) > 0 {
		crc = crc32.Update(crc, crc32.IEEETable, chr)
	}
	return crc
}
