package server

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/cashplay-space/cashplay/internal/engine"
	"github.com/cashplay-space/cashplay/internal/ledger"
)

type Config struct {
	Port      string
	JwtSecret string
	// CancelTimeout discards an idle match and refunds the live players.
	CancelTimeout time.Duration

	// StakeMinor is the entry fee per participant, in cents.
	StakeMinor  int64
	FeeBps      int64
	RecordDraws bool

	PlayersPerRace int
	DiceRace       engine.DiceRaceConfig

	Postgres ledger.Config
}

func NewConfig() Config {
	var config Config

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs/server")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("Server.Port", "3000")
	viper.SetDefault("Server.CancelTimeout", "5m")
	viper.SetDefault("Match.StakeMinor", 100)
	viper.SetDefault("Match.PlayersPerRace", 4)
	viper.SetDefault("Settlement.FeeBps", 2500)
	viper.SetDefault("Settlement.RecordDraws", false)
	viper.SetDefault("DiceRace.BoardSize", 100)
	viper.SetDefault("DiceRace.Ladders", 5)
	viper.SetDefault("DiceRace.Snakes", 5)
	viper.SetDefault("DiceRace.MinSpan", 10)

	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	config.Port = viper.GetString("Server.Port")
	cancelTimeout, err := time.ParseDuration(viper.GetString("Server.CancelTimeout"))
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}
	config.CancelTimeout = cancelTimeout

	config.JwtSecret = viper.GetString("JWT_SECRET")
	if config.JwtSecret == "" {
		panic(fmt.Errorf("fatal error config file: JWT_SECRET not set"))
	}

	config.StakeMinor = viper.GetInt64("Match.StakeMinor")
	config.PlayersPerRace = viper.GetInt("Match.PlayersPerRace")
	config.FeeBps = viper.GetInt64("Settlement.FeeBps")
	config.RecordDraws = viper.GetBool("Settlement.RecordDraws")

	config.DiceRace = engine.DiceRaceConfig{
		BoardSize: viper.GetInt("DiceRace.BoardSize"),
		Ladders:   viper.GetInt("DiceRace.Ladders"),
		Snakes:    viper.GetInt("DiceRace.Snakes"),
		MinSpan:   viper.GetInt("DiceRace.MinSpan"),
	}

	config.Postgres = ledger.Config{
		Host:     viper.GetString("POSTGRES_HOST"),
		Port:     viper.GetString("POSTGRES_PORT"),
		User:     viper.GetString("POSTGRES_USER"),
		Password: viper.GetString("POSTGRES_PASSWORD"),
		Database: viper.GetString("POSTGRES_DATABASE"),
	}

	return config
}

// requiredPlayers returns the match size for a kind. The race game's is a
// deployment tunable; the two-party kinds are fixed.
func (c Config) requiredPlayers(kind engine.Kind) int {
	if kind == engine.DiceRace {
		return c.PlayersPerRace
	}
	return 2
}
