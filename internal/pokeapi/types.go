package pokeapi

import (
	"encoding/json"
	"fmt"
)

// BattleData is the normalized subset of a Pokemon payload used by battles.
// It is immutable once extracted from the upstream response.
type BattleData struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	Stats        map[string]int `json:"stats"`
	Abilities    []string       `json:"abilities"`
	Types        []string       `json:"types"`
	PokemonImage string         `json:"pokemon_image"`
}

// TotalStats returns the sum of all base stat values.
func (b *BattleData) TotalStats() int {
	total := 0
	for _, v := range b.Stats {
		total += v
	}
	return total
}

// rawPokemon mirrors the nested upstream payload shape. Pointers distinguish
// absent required fields from zero values.
type rawPokemon struct {
	ID    *int    `json:"id"`
	Name  *string `json:"name"`
	Stats []struct {
		BaseStat *int `json:"base_stat"`
		Stat     *struct {
			Name string `json:"name"`
		} `json:"stat"`
	} `json:"stats"`
	Abilities []struct {
		Ability *struct {
			Name string `json:"name"`
		} `json:"ability"`
	} `json:"abilities"`
	Types []struct {
		Type *struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
	Sprites *struct {
		FrontDefault *string `json:"front_default"`
	} `json:"sprites"`
}

// ExtractBattleData maps a full upstream Pokemon payload into BattleData.
// Any required field missing from the payload is a malformed-response error;
// the caller treats that as a failed fetch attempt rather than defaulting.
func ExtractBattleData(payload []byte) (*BattleData, error) {
	var raw rawPokemon
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if raw.ID == nil {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedPayload)
	}
	if raw.Name == nil {
		return nil, fmt.Errorf("%w: missing name", ErrMalformedPayload)
	}
	if raw.Stats == nil {
		return nil, fmt.Errorf("%w: missing stats", ErrMalformedPayload)
	}
	if raw.Abilities == nil {
		return nil, fmt.Errorf("%w: missing abilities", ErrMalformedPayload)
	}
	if raw.Types == nil {
		return nil, fmt.Errorf("%w: missing types", ErrMalformedPayload)
	}
	if raw.Sprites == nil || raw.Sprites.FrontDefault == nil {
		return nil, fmt.Errorf("%w: missing sprites.front_default", ErrMalformedPayload)
	}

	stats := make(map[string]int, len(raw.Stats))
	for _, s := range raw.Stats {
		if s.Stat == nil || s.BaseStat == nil {
			return nil, fmt.Errorf("%w: malformed stats entry", ErrMalformedPayload)
		}
		stats[s.Stat.Name] = *s.BaseStat
	}

	abilities := make([]string, 0, len(raw.Abilities))
	for _, a := range raw.Abilities {
		if a.Ability == nil {
			return nil, fmt.Errorf("%w: malformed abilities entry", ErrMalformedPayload)
		}
		abilities = append(abilities, a.Ability.Name)
	}

	types := make([]string, 0, len(raw.Types))
	for _, t := range raw.Types {
		if t.Type == nil {
			return nil, fmt.Errorf("%w: malformed types entry", ErrMalformedPayload)
		}
		types = append(types, t.Type.Name)
	}

	return &BattleData{
		ID:           *raw.ID,
		Name:         *raw.Name,
		Stats:        stats,
		Abilities:    abilities,
		Types:        types,
		PokemonImage: *raw.Sprites.FrontDefault,
	}, nil
}
