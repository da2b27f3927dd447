package config

type RosterConfig struct {
	Sides []SideDef `yaml:"sides"`
}

type SideDef struct {
	Owner    string    `yaml:"owner"`
	Bounty   uint32    `yaml:"bounty"`
	Upgrades []string  `yaml:"upgrades"`
	Crew     []CrewDef `yaml:"crew"`
}

type CrewDef struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Traits    []string `yaml:"traits"`
	MaxHP     uint32   `yaml:"max_hp"`
	Attack    uint32   `yaml:"attack"`
	Defense   uint32   `yaml:"defense"`
	Items     []string `yaml:"items"`
	Completed string   `yaml:"completed"`
}
