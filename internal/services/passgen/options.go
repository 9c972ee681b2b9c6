package passgen

import "ballotbox/internal/platform/config"

// Options controls the passgen command
type Options struct {
	File   string `name:"file" validate:"required"`
	Column string `name:"column" validate:"required"`
	Length int    `name:"length" validate:"gte=1,lte=128"`
}

// FromConfig reads CORE_PASSGEN_ options
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_PASSGEN_")
	return Options{
		File:   c.MayString("FILE", "users.csv"),
		Column: c.MayString("COLUMN", "email"),
		Length: c.MayInt("LENGTH", 9),
	}
}
