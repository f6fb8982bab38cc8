package wifi

// Patch carries the changed fields of a profile. A nil field is left unchanged.
type Patch struct {
	SSID         *string `json:"ssid,omitempty" validate:"omitempty,max=32"`
	Password     *string `json:"password,omitempty" validate:"omitempty,min=8,max=63"`
	Band         *string `json:"band,omitempty" validate:"omitempty,oneof=2.4GHz 5GHz"`
	Channel      *int    `json:"channel,omitempty" validate:"omitempty,gte=0,lte=196"`
	ChannelWidth *int    `json:"channel_width,omitempty" validate:"omitempty,oneof=20 40 80 160"`
	Security     *string `json:"security,omitempty" validate:"omitempty,oneof=open wpa2 wpa3 wpa2-wpa3"`
	Hidden       *bool   `json:"hidden,omitempty"`
	Enabled      *bool   `json:"enabled,omitempty"`
	TxPower      *int    `json:"tx_power,omitempty" validate:"omitempty,gte=1,lte=100"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

// ApplyTo returns profile with the patch applied.
func (p Patch) ApplyTo(profile Profile) Profile {
	if p.SSID != nil {
		profile.SSID = *p.SSID
	}
	if p.Password != nil {
		profile.Password = *p.Password
	}
	if p.Band != nil {
		profile.Band = *p.Band
	}
	if p.Channel != nil {
		profile.Channel = *p.Channel
	}
	if p.ChannelWidth != nil {
		profile.ChannelWidth = *p.ChannelWidth
	}
	if p.Security != nil {
		profile.Security = *p.Security
	}
	if p.Hidden != nil {
		profile.Hidden = *p.Hidden
	}
	if p.Enabled != nil {
		profile.Enabled = *p.Enabled
	}
	if p.TxPower != nil {
		profile.TxPower = *p.TxPower
	}
	return profile
}

// Diff returns the fields of desired that differ from current.
func Diff(current, desired Profile) Patch {
	var p Patch
	p.SSID = changed(current.SSID, desired.SSID)
	p.Password = changed(current.Password, desired.Password)
	p.Band = changed(current.Band, desired.Band)
	p.Channel = changed(current.Channel, desired.Channel)
	p.ChannelWidth = changed(current.ChannelWidth, desired.ChannelWidth)
	p.Security = changed(current.Security, desired.Security)
	p.Hidden = changed(current.Hidden, desired.Hidden)
	p.Enabled = changed(current.Enabled, desired.Enabled)
	p.TxPower = changed(current.TxPower, desired.TxPower)
	return p
}

func changed[V comparable](current, desired V) *V {
	if current == desired {
		return nil
	}
	return &desired
}

// Fields lists the JSON names of the changed fields. Passwords are reported
// by name only.
func (p Patch) Fields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.SSID != nil, "ssid")
	add(p.Password != nil, "password")
	add(p.Band != nil, "band")
	add(p.Channel != nil, "channel")
	add(p.ChannelWidth != nil, "channel_width")
	add(p.Security != nil, "security")
	add(p.Hidden != nil, "hidden")
	add(p.Enabled != nil, "enabled")
	add(p.TxPower != nil, "tx_power")
	return out
}
