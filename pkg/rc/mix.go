// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

// MixBase mixes a master value into a slave value. Positive and negative
// rates apply depending on the sign of the offset-adjusted master.
type MixBase struct {
	posMix int8
	negMix int8
	offset int16
}

// NewMixBase returns a mix with the given rates and offset
func NewMixBase(pos, neg int8, offset int16) (MixBase, error) {
	var m MixBase
	if err := m.SetPosMix(pos); err != nil {
		return m, err
	}
	if err := m.SetNegMix(neg); err != nil {
		return m, err
	}
	if err := m.SetOffset(offset); err != nil {
		return m, err
	}
	return m, nil
}

// SetPosMix sets the rate applied to a non-negative master, [-100, 100]
func (m *MixBase) SetPosMix(rate int8) error {
	if err := checkRange("positive mix", int(rate), RateMin, RateMax); err != nil {
		return err
	}
	m.posMix = rate
	return nil
}

// PosMix returns the rate applied to a non-negative master
func (m MixBase) PosMix() int8 { return m.posMix }

// SetNegMix sets the rate applied to a negative master, [-100, 100]
func (m *MixBase) SetNegMix(rate int8) error {
	if err := checkRange("negative mix", int(rate), RateMin, RateMax); err != nil {
		return err
	}
	m.negMix = rate
	return nil
}

// NegMix returns the rate applied to a negative master
func (m MixBase) NegMix() int8 { return m.negMix }

// SetOffset sets the master offset, [-358, 358]
func (m *MixBase) SetOffset(offset int16) error {
	if err := checkRange("offset", int(offset), Normal140Min, Normal140Max); err != nil {
		return err
	}
	m.offset = offset
	return nil
}

// Offset returns the master offset
func (m MixBase) Offset() int16 { return m.offset }

func (m MixBase) rateFor(master int16) int8 {
	if master < 0 {
		return m.negMix
	}
	return m.posMix
}

func (m MixBase) shifted(master int16) int16 {
	return clamp32(int32(master)-int32(m.offset), Normal140Min, Normal140Max)
}

// ApplyMix returns slave with the master contribution added
func (m MixBase) ApplyMix(master, slave int16) int16 {
	master = m.shifted(master)
	return clamp32(int32(slave)+int32(Mix(master, m.rateFor(master))), Normal140Min, Normal140Max)
}

// ApplyOffsetMix applies only the offset, for mixes without a master
func (m MixBase) ApplyOffsetMix(slave int16) int16 {
	return clamp32(int32(slave)-int32(m.offset), Normal140Min, Normal140Max)
}

// ThrottleMixBase is a mix whose strength follows the throttle: full effect
// at center throttle, none at either end.
type ThrottleMixBase struct {
	MixBase
}

// NewThrottleMixBase returns a throttle mix with the given rates and offset
func NewThrottleMixBase(pos, neg int8, offset int16) (ThrottleMixBase, error) {
	m, err := NewMixBase(pos, neg, offset)
	return ThrottleMixBase{MixBase: m}, err
}

// ApplyThrottleMix returns throttle with the weighted master contribution
// added, limited to [-256, 256].
func (m ThrottleMixBase) ApplyThrottleMix(master, throttle int16) int16 {
	scale := int32(NormalMax) - int32(abs16(throttle))
	if scale < 0 {
		scale = 0
	}
	master = m.shifted(master)
	master = int16(int32(master) * scale / 256)
	return clamp32(int32(throttle)+int32(Mix(master, m.rateFor(master))), NormalMin, NormalMax)
}
