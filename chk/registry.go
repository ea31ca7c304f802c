// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package chk

import (
	"fmt"

	"github.com/suprsokr/go-mpq/internal/byteio"
)

// Tag constants for every chunk kind the registry recognizes.
var (
	TagType = tag("TYPE")
	TagVer  = tag("VER ")
	TagIver = tag("IVER")
	TagIve2 = tag("IVE2")
	TagVcod = tag("VCOD")
	TagIown = tag("IOWN")
	TagOwnr = tag("OWNR")
	TagEra  = tag("ERA ")
	TagDim  = tag("DIM ")
	TagSide = tag("SIDE")
	TagMtxm = tag("MTXM")
	TagTile = tag("TILE")
	TagIsom = tag("ISOM")
	TagUnit = tag("UNIT")
	TagUpgs = tag("UPGS")
	TagUpgx = tag("UPGX")
	TagUpgr = tag("UPGR")
	TagPtec = tag("PTEC")
	TagPtex = tag("PTEX")
	TagTecs = tag("TECS")
	TagTecx = tag("TECX")
	TagUnis = tag("UNIS")
	TagUnix = tag("UNIx")
	TagMrgn = tag("MRGN")
	TagTrig = tag("TRIG")
	TagMbrf = tag("MBRF")
	TagSprp = tag("SPRP")
	TagForc = tag("FORC")
	TagWav  = tag("WAV ")
	TagSwnm = tag("SWNM")
	TagColr = tag("COLR")
	TagCrgb = tag("CRGB")
	TagPuni = tag("PUNI")
	TagPupx = tag("PUPX")
	TagThg2 = tag("THG2")
	TagMask = tag("MASK")
	TagDd2  = tag("DD2 ")
	TagUprp = tag("UPRP")
	TagUpus = tag("UPUS")
	TagStr  = tag("STR ")
	TagStrx = tag("STRx")
)

type decodeFunc func(body []byte) (any, error)

type spec struct {
	rule   SizeRule
	decode decodeFunc
}

// registry maps a recognized tag to its size rule and decoder. An
// unrecognized tag, or one whose declared size violates its rule's
// arithmetic, becomes an *Unknown rather than a parse failure: spec
// §4.10's "bad-argument" variant.
var registry = map[Tag]spec{
	TagType: {sized(4), decodeType},
	TagVer:  {sized(2), decodeVer},
	TagIver: {sized(2), decodeIver},
	TagIve2: {sized(4), decodeIve2},
	TagVcod: {boxedDyn(), decodeVcod},
	TagIown: {sized(12), decodeIown},
	TagOwnr: {sized(12), decodeOwnr},
	TagEra:  {sized(2), decodeEra},
	TagDim:  {sized(4), decodeDim},
	TagSide: {sized(12), decodeSide},
	TagMtxm: {boxedInt(2), decodeMtxm},
	TagTile: {boxedInt(2), decodeTile},
	TagIsom: {boxedDyn(), decodeIsom},
	TagUnit: {boxedInt(36), decodeUnit},
	TagUpgs: {boxedInt(3), decodeUpgs},
	TagUpgx: {boxedInt(3), decodeUpgx},
	TagUpgr: {boxedDyn(), decodeUpgr},
	TagPtec: {boxedInt(2), decodePtec},
	TagPtex: {boxedInt(2), decodePtex},
	TagTecs: {boxedDyn(), decodeTecs},
	TagTecx: {boxedDyn(), decodeTecx},
	TagUnis: {boxedInt(18), decodeUnis},
	TagUnix: {boxedInt(18), decodeUnix},
	TagMrgn: {boxedInt(20), decodeMrgn},
	TagTrig: {boxedInt(2400), decodeTrig},
	TagMbrf: {boxedInt(2400), decodeMbrf},
	TagSprp: {sized(4), decodeSprp},
	TagForc: {sized(20), decodeForc},
	TagWav:  {boxedInt(4), decodeWav},
	TagSwnm: {boxedDyn(), decodeSwnm},
	TagColr: {sized(8), decodeColr},
	TagCrgb: {boxedInt(4), decodeCrgb},
	TagPuni: {boxedInt(3), decodePuni},
	TagPupx: {boxedInt(3), decodePupx},
	TagThg2: {boxedInt(10), decodeThg2},
	TagMask: {boxedDyn(), decodeMask},
	TagDd2:  {boxedInt(18), decodeDd2},
	TagUprp: {sized(64 * 13), decodeUprp},
	TagUpus: {sized(64), decodeUpus},
	TagStr:  {boxedDyn(), decodeStr},
	TagStrx: {boxedDyn(), decodeStrx},
}

func decodeType(b []byte) (any, error) {
	r := byteio.NewReader(b)
	v, err := r.U32LE()
	return Type{GameType: v}, err
}

func decodeVer(b []byte) (any, error) {
	r := byteio.NewReader(b)
	v, err := r.U16LE()
	return Ver{FormatVersion: v}, err
}

func decodeIver(b []byte) (any, error) {
	r := byteio.NewReader(b)
	v, err := r.U16LE()
	return Iver{GameVersion: v}, err
}

func decodeIve2(b []byte) (any, error) {
	r := byteio.NewReader(b)
	v, err := r.U32LE()
	return Ive2{GameVersion: v}, err
}

func decodeVcod(b []byte) (any, error) {
	return Vcod{Data: append([]byte(nil), b...)}, nil
}

func decodeOwnerArray(b []byte) ([12]Owner, error) {
	var out [12]Owner
	if len(b) != 12 {
		return out, fmt.Errorf("chk: owner array needs 12 bytes, got %d", len(b))
	}
	for i, v := range b {
		out[i] = Owner(v)
	}
	return out, nil
}

func decodeIown(b []byte) (any, error) {
	owners, err := decodeOwnerArray(b)
	return Iown{Owners: owners}, err
}

func decodeOwnr(b []byte) (any, error) {
	owners, err := decodeOwnerArray(b)
	return Ownr{Owners: owners}, err
}

func decodeEra(b []byte) (any, error) {
	r := byteio.NewReader(b)
	v, err := r.U16LE()
	return Era{Tileset: v}, err
}

func decodeDim(b []byte) (any, error) {
	r := byteio.NewReader(b)
	w, err := r.U16LE()
	if err != nil {
		return Dim{}, err
	}
	h, err := r.U16LE()
	return Dim{Width: w, Height: h}, err
}

func decodeSide(b []byte) (any, error) {
	if len(b) != 12 {
		return Side{}, fmt.Errorf("chk: side needs 12 bytes, got %d", len(b))
	}
	var out [12]Race
	for i, v := range b {
		out[i] = Race(v)
	}
	return Side{Races: out}, nil
}

func decodeU16Array(b []byte) ([]uint16, error) {
	r := byteio.NewReader(b)
	out := make([]uint16, r.Len()/2)
	for i := range out {
		v, err := r.U16LE()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeMtxm(b []byte) (any, error) {
	v, err := decodeU16Array(b)
	return Mtxm{TileIDs: v}, err
}

func decodeTile(b []byte) (any, error) {
	v, err := decodeU16Array(b)
	return Tile{TileIDs: v}, err
}

// decodeIsom tolerates an odd trailing byte per spec §8's protector-
// tampered-ISOM scenario: the final partial uint16 is zero-extended
// instead of rejected.
func decodeIsom(b []byte) (any, error) {
	n := len(b) / 2
	out := make([]uint16, 0, n+1)
	r := byteio.NewReader(b)
	for i := 0; i < n; i++ {
		v, err := r.U16LE()
		if err != nil {
			return Isom{}, err
		}
		out = append(out, v)
	}
	if len(b)%2 == 1 {
		last, _ := r.U8()
		out = append(out, uint16(last))
	}
	return Isom{Values: out}, nil
}

func decodePlacedUnit(r *byteio.Reader) (PlacedUnit, error) {
	var u PlacedUnit
	var err error
	if u.InstanceID, err = r.U32LE(); err != nil {
		return u, err
	}
	if u.X, err = r.U16LE(); err != nil {
		return u, err
	}
	if u.Y, err = r.U16LE(); err != nil {
		return u, err
	}
	if u.UnitID, err = r.U16LE(); err != nil {
		return u, err
	}
	if u.RelationFlags, err = r.U16LE(); err != nil {
		return u, err
	}
	if u.SpecialFlags, err = r.U16LE(); err != nil {
		return u, err
	}
	if u.ValidFlags, err = r.U16LE(); err != nil {
		return u, err
	}
	var b byte
	if b, err = r.U8(); err != nil {
		return u, err
	}
	u.Owner = b
	if b, err = r.U8(); err != nil {
		return u, err
	}
	u.HitpointPercent = b
	if b, err = r.U8(); err != nil {
		return u, err
	}
	u.ShieldPercent = b
	if b, err = r.U8(); err != nil {
		return u, err
	}
	u.EnergyPercent = b
	if u.ResourceAmount, err = r.U32LE(); err != nil {
		return u, err
	}
	if u.UnitsInHangar, err = r.U16LE(); err != nil {
		return u, err
	}
	if u.StateFlags, err = r.U16LE(); err != nil {
		return u, err
	}
	if _, err = r.U32LE(); err != nil {
		return u, err
	}
	if u.RelatedUnit, err = r.U32LE(); err != nil {
		return u, err
	}
	return u, nil
}

func decodeUnit(b []byte) (any, error) {
	r := byteio.NewReader(b)
	n := len(b) / 36
	units := make([]PlacedUnit, n)
	for i := range units {
		u, err := decodePlacedUnit(r)
		if err != nil {
			return Unit{}, err
		}
		units[i] = u
	}
	return Unit{Units: units}, nil
}

func decodeUpgradeArray(b []byte) ([]Upgrade, error) {
	r := byteio.NewReader(b)
	n := len(b) / 3
	out := make([]Upgrade, n)
	for i := range out {
		mx, err := r.U8()
		if err != nil {
			return nil, err
		}
		st, err := r.U8()
		if err != nil {
			return nil, err
		}
		def, err := r.U8()
		if err != nil {
			return nil, err
		}
		out[i] = Upgrade{PlayerMaxLevel: mx, PlayerStartLevel: st, PlayerDefault: def}
	}
	return out, nil
}

func decodeUpgs(b []byte) (any, error) {
	v, err := decodeUpgradeArray(b)
	return Upgs{Upgrades: v}, err
}

func decodeUpgx(b []byte) (any, error) {
	v, err := decodeUpgradeArray(b)
	return Upgx{Upgrades: v}, err
}

func decodeUpgr(b []byte) (any, error) {
	return Upgr{Data: append([]byte(nil), b...)}, nil
}

func decodeTechArray(b []byte) ([]Tech, error) {
	r := byteio.NewReader(b)
	n := len(b) / 2
	out := make([]Tech, n)
	for i := range out {
		avail, err := r.U8()
		if err != nil {
			return nil, err
		}
		res, err := r.U8()
		if err != nil {
			return nil, err
		}
		out[i] = Tech{PlayerAvailable: avail, PlayerResearched: res}
	}
	return out, nil
}

func decodePtec(b []byte) (any, error) {
	v, err := decodeTechArray(b)
	return Ptec{Techs: v}, err
}

func decodePtex(b []byte) (any, error) {
	v, err := decodeTechArray(b)
	return Ptex{Techs: v}, err
}

func decodeTecs(b []byte) (any, error) {
	return Tecs{Data: append([]byte(nil), b...)}, nil
}

func decodeTecx(b []byte) (any, error) {
	return Tecx{Data: append([]byte(nil), b...)}, nil
}

func decodeUnitSettingsArray(b []byte) ([]UnitSettings, error) {
	r := byteio.NewReader(b)
	n := len(b) / 18
	out := make([]UnitSettings, n)
	for i := range out {
		flags, err := r.U8()
		if err != nil {
			return nil, err
		}
		hp, err := r.U32LE()
		if err != nil {
			return nil, err
		}
		shields, err := r.U16LE()
		if err != nil {
			return nil, err
		}
		armor, err := r.U8()
		if err != nil {
			return nil, err
		}
		buildTime, err := r.U16LE()
		if err != nil {
			return nil, err
		}
		mineral, err := r.U16LE()
		if err != nil {
			return nil, err
		}
		gas, err := r.U16LE()
		if err != nil {
			return nil, err
		}
		nameID, err := r.U16LE()
		if err != nil {
			return nil, err
		}
		out[i] = UnitSettings{
			HitpointsUsed:   flags&0x01 != 0,
			ShieldsUsed:     flags&0x02 != 0,
			ArmorUsed:       flags&0x04 != 0,
			BuildTimeUsed:   flags&0x08 != 0,
			MineralCostUsed: flags&0x10 != 0,
			GasCostUsed:     flags&0x20 != 0,
			NameStringUsed:  flags&0x40 != 0,
			Hitpoints:       hp,
			Shields:         shields,
			Armor:           armor,
			BuildTime:       buildTime,
			MineralCost:     mineral,
			GasCost:         gas,
			NameStringID:    nameID,
		}
	}
	return out, nil
}

func decodeUnis(b []byte) (any, error) {
	v, err := decodeUnitSettingsArray(b)
	return Unis{Settings: v}, err
}

func decodeUnix(b []byte) (any, error) {
	v, err := decodeUnitSettingsArray(b)
	return Unix{Settings: v}, err
}

func decodeMrgn(b []byte) (any, error) {
	r := byteio.NewReader(b)
	n := len(b) / 20
	out := make([]Location, n)
	for i := range out {
		var l Location
		var err error
		if l.Left, err = r.U32LE(); err != nil {
			return nil, err
		}
		if l.Top, err = r.U32LE(); err != nil {
			return nil, err
		}
		if l.Right, err = r.U32LE(); err != nil {
			return nil, err
		}
		if l.Bottom, err = r.U32LE(); err != nil {
			return nil, err
		}
		if l.NameIndex, err = r.U16LE(); err != nil {
			return nil, err
		}
		if l.Elevation, err = r.U16LE(); err != nil {
			return nil, err
		}
		out[i] = l
	}
	return Mrgn{Locations: out}, nil
}

func decodeCondition(r *byteio.Reader) (Condition, error) {
	var c Condition
	var err error
	if c.LocationIndex, err = r.U32LE(); err != nil {
		return c, err
	}
	if c.PlayerGroup, err = r.U32LE(); err != nil {
		return c, err
	}
	if c.Amount, err = r.U32LE(); err != nil {
		return c, err
	}
	if c.UnitID, err = r.U16LE(); err != nil {
		return c, err
	}
	if c.Comparison, err = r.U8(); err != nil {
		return c, err
	}
	if c.Kind, err = r.U8(); err != nil {
		return c, err
	}
	if c.AmountKind, err = r.U8(); err != nil {
		return c, err
	}
	if c.Flags, err = r.U8(); err != nil {
		return c, err
	}
	if _, err = r.U16LE(); err != nil {
		return c, err
	}
	return c, nil
}

func decodeAction(r *byteio.Reader) (Action, error) {
	var a Action
	var err error
	if a.LocationIndex, err = r.U32LE(); err != nil {
		return a, err
	}
	if a.StringIndex, err = r.U32LE(); err != nil {
		return a, err
	}
	if a.WavIndex, err = r.U32LE(); err != nil {
		return a, err
	}
	if a.Time, err = r.U32LE(); err != nil {
		return a, err
	}
	if a.PlayerGroup, err = r.U32LE(); err != nil {
		return a, err
	}
	if a.Amount, err = r.U32LE(); err != nil {
		return a, err
	}
	if a.UnitID, err = r.U16LE(); err != nil {
		return a, err
	}
	if a.ActionKind, err = r.U8(); err != nil {
		return a, err
	}
	if a.AmountKind, err = r.U8(); err != nil {
		return a, err
	}
	if a.Flags, err = r.U8(); err != nil {
		return a, err
	}
	if _, err = r.Bytes(3); err != nil {
		return a, err
	}
	return a, nil
}

func decodeTriggerArray(b []byte) ([]Trigger, error) {
	r := byteio.NewReader(b)
	n := len(b) / 2400
	out := make([]Trigger, n)
	for i := range out {
		var t Trigger
		for c := range t.Conditions {
			cond, err := decodeCondition(r)
			if err != nil {
				return nil, err
			}
			t.Conditions[c] = cond
		}
		for a := range t.Actions {
			act, err := decodeAction(r)
			if err != nil {
				return nil, err
			}
			t.Actions[a] = act
		}
		var err error
		if t.ExecutionFlag, err = r.U32LE(); err != nil {
			return nil, err
		}
		mask, err := r.Bytes(28)
		if err != nil {
			return nil, err
		}
		copy(t.PlayerMask[:], mask)
		out[i] = t
	}
	return out, nil
}

func decodeTrig(b []byte) (any, error) {
	v, err := decodeTriggerArray(b)
	return Trig{Triggers: v}, err
}

func decodeMbrf(b []byte) (any, error) {
	v, err := decodeTriggerArray(b)
	return Mbrf{Triggers: v}, err
}

func decodeSprp(b []byte) (any, error) {
	r := byteio.NewReader(b)
	name, err := r.U16LE()
	if err != nil {
		return Sprp{}, err
	}
	desc, err := r.U16LE()
	return Sprp{ScenarioNameStringID: name, ScenarioDescStringID: desc}, err
}

func decodeForc(b []byte) (any, error) {
	r := byteio.NewReader(b)
	assign, err := r.Bytes(8)
	if err != nil {
		return Forc{}, err
	}
	var out Forc
	copy(out.PlayerForce[:], assign)
	var ids [4]uint16
	for i := range ids {
		if ids[i], err = r.U16LE(); err != nil {
			return Forc{}, err
		}
	}
	flags, err := r.Bytes(4)
	if err != nil {
		return Forc{}, err
	}
	for i := range out.Forces {
		out.Forces[i] = Force{StringID: ids[i], Flags: flags[i]}
	}
	return out, nil
}

func decodeWav(b []byte) (any, error) {
	r := byteio.NewReader(b)
	n := len(b) / 4
	out := make([]uint32, n)
	for i := range out {
		v, err := r.U32LE()
		if err != nil {
			return Wav{}, err
		}
		out[i] = v
	}
	return Wav{StringIndex: out}, nil
}

func decodeSwnm(b []byte) (any, error) {
	return Swnm{Data: append([]byte(nil), b...)}, nil
}

func decodeColr(b []byte) (any, error) {
	if len(b) != 8 {
		return Colr{}, fmt.Errorf("chk: colr needs 8 bytes, got %d", len(b))
	}
	var out Colr
	copy(out.Colors[:], b)
	return out, nil
}

func decodeCrgb(b []byte) (any, error) {
	if len(b) < 4 {
		return Crgb{}, fmt.Errorf("chk: crgb needs at least 4 bytes, got %d", len(b))
	}
	return Crgb{R: b[0], G: b[1], B: b[2]}, nil
}

func decodeAvailabilityArray(b []byte) ([]UnitAvailability, error) {
	r := byteio.NewReader(b)
	n := len(b) / 3
	out := make([]UnitAvailability, n)
	for i := range out {
		used, err := r.U8()
		if err != nil {
			return nil, err
		}
		buy, err := r.U8()
		if err != nil {
			return nil, err
		}
		def, err := r.U8()
		if err != nil {
			return nil, err
		}
		out[i] = UnitAvailability{PlayerUsed: used != 0, PlayerCanBuy: buy != 0, PlayerDefault: def != 0}
	}
	return out, nil
}

func decodePuni(b []byte) (any, error) {
	v, err := decodeAvailabilityArray(b)
	return Puni{Availability: v}, err
}

func decodePupx(b []byte) (any, error) {
	v, err := decodeAvailabilityArray(b)
	return Pupx{Availability: v}, err
}

func decodeThg2(b []byte) (any, error) {
	r := byteio.NewReader(b)
	n := len(b) / 10
	out := make([]Thg2Sprite, n)
	for i := range out {
		var s Thg2Sprite
		var err error
		if s.SpriteID, err = r.U16LE(); err != nil {
			return nil, err
		}
		if s.X, err = r.U16LE(); err != nil {
			return nil, err
		}
		if s.Y, err = r.U16LE(); err != nil {
			return nil, err
		}
		if s.Owner, err = r.U8(); err != nil {
			return nil, err
		}
		if _, err = r.U8(); err != nil {
			return nil, err
		}
		if s.Flags, err = r.U16LE(); err != nil {
			return nil, err
		}
		out[i] = s
	}
	return Thg2{Sprites: out}, nil
}

func decodeMask(b []byte) (any, error) {
	return Mask{Tiles: append([]byte(nil), b...)}, nil
}

func decodeDd2(b []byte) (any, error) {
	r := byteio.NewReader(b)
	n := len(b) / 18
	out := make([]Dd2Record, n)
	for i := range out {
		var d Dd2Record
		var err error
		if d.DoodadID, err = r.U16LE(); err != nil {
			return nil, err
		}
		if d.X, err = r.U16LE(); err != nil {
			return nil, err
		}
		if d.Y, err = r.U16LE(); err != nil {
			return nil, err
		}
		if d.ID, err = r.U16LE(); err != nil {
			return nil, err
		}
		if d.Owner, err = r.U8(); err != nil {
			return nil, err
		}
		if d.Flags, err = r.U8(); err != nil {
			return nil, err
		}
		if _, err = r.U32LE(); err != nil {
			return nil, err
		}
		if d.Unknown, err = r.U32LE(); err != nil {
			return nil, err
		}
		out[i] = d
	}
	return Dd2{Doodads: out}, nil
}

func decodeUprp(b []byte) (any, error) {
	r := byteio.NewReader(b)
	var out Uprp
	for i := range out.Slots {
		var s UprpSlot
		var err error
		if s.ValidFlags, err = r.U16LE(); err != nil {
			return nil, err
		}
		if s.Owner, err = r.U8(); err != nil {
			return nil, err
		}
		if _, err = r.U8(); err != nil {
			return nil, err
		}
		if s.HitpointPercent, err = r.U8(); err != nil {
			return nil, err
		}
		if s.ShieldPercent, err = r.U8(); err != nil {
			return nil, err
		}
		if s.EnergyPercent, err = r.U8(); err != nil {
			return nil, err
		}
		if s.ResourceAmount, err = r.U32LE(); err != nil {
			return nil, err
		}
		if s.UnitsInHangar, err = r.U16LE(); err != nil {
			return nil, err
		}
		out.Slots[i] = s
	}
	return out, nil
}

func decodeUpus(b []byte) (any, error) {
	var out Upus
	copy(out.Used[:], b)
	return out, nil
}

func decodeStr(b []byte) (any, error) {
	s, err := parseStringPool16(b)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func decodeStrx(b []byte) (any, error) {
	s, err := parseStringPool32(b)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
