package config

type ItemsConfig struct {
	Components []ItemStats `yaml:"components"`
	Recipes    []Recipe    `yaml:"recipes"`
	Completed  []ItemStats `yaml:"completed"`
}

// ItemStats is one bonus row. Components and completed items share the shape;
// only completed items normally carry crit damage, regen, splash or shred.
type ItemStats struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	HP          int64   `yaml:"hp"`
	AD          int64   `yaml:"ad"`
	Armor       int64   `yaml:"armor"`
	AP          int64   `yaml:"ap"`
	MR          int64   `yaml:"mr"`
	Mana        int64   `yaml:"mana"`
	CritChance  float64 `yaml:"crit_chance"`
	CritDamage  float64 `yaml:"crit_damage"`
	AttackSpeed float64 `yaml:"attack_speed"`
	HPRegen     float64 `yaml:"hp_regen"`
	Splash      bool    `yaml:"splash"`
	ArmorShred  int64   `yaml:"armor_shred"`
	Note        string  `yaml:"note"`
}

// Recipe combines two components (order-insensitive) into a completed item.
type Recipe struct {
	A      string `yaml:"a"`
	B      string `yaml:"b"`
	Result string `yaml:"result"`
}
