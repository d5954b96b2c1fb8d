// Package config holds the static reporting tables: the marketing group
// registry, the list-name to status map and the content-creator set. Tables
// are loaded once at startup and injected into the report engine.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"trelliq-api/domain"
	"trelliq-api/report"
)

// Config mirrors the YAML layout of a reporting tables file.
type Config struct {
	ContentList     string            `yaml:"contentList"`
	ContentCreators []string          `yaml:"contentCreators"`
	Groups          []GroupConfig     `yaml:"groups"`
	ListStatuses    map[string]string `yaml:"listStatuses"`
}

// GroupConfig is one marketing group declaration.
type GroupConfig struct {
	Name            string              `yaml:"name"`
	Responsibles    []ResponsibleConfig `yaml:"responsibles"`
	OpeningStages   []string            `yaml:"openingStages"`
	FinishingStages []string            `yaml:"finishingStages"`
	DoneStages      []string            `yaml:"doneStages"`
}

// ResponsibleConfig is one person inside a group.
type ResponsibleConfig struct {
	Handle string `yaml:"handle"`
	Name   string `yaml:"name"`
}

// Load reads a YAML tables file. An empty path returns the built-in defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Registry builds the immutable group registry from the configured groups.
func (c Config) Registry() *domain.Registry {
	groups := make([]domain.Group, len(c.Groups))
	for i, g := range c.Groups {
		responsibles := make([]domain.Responsible, len(g.Responsibles))
		for j, r := range g.Responsibles {
			responsibles[j] = domain.Responsible{Handle: r.Handle, Name: r.Name}
		}
		groups[i] = domain.Group{
			Name:            g.Name,
			Responsibles:    responsibles,
			OpeningStages:   g.OpeningStages,
			FinishingStages: g.FinishingStages,
			DoneStages:      g.DoneStages,
		}
	}
	return domain.NewRegistry(groups)
}

// Engine wires the tables into a report engine. Unknown status names in the
// list-status table are rejected so a typo in the YAML fails fast at startup.
func (c Config) Engine() (*report.Engine, error) {
	statuses := make(map[string]domain.Status, len(c.ListStatuses))
	for list, name := range c.ListStatuses {
		status := domain.Status(name)
		if !domain.ValidStatus(status) {
			return nil, fmt.Errorf("list %q: unknown status %q", list, name)
		}
		statuses[list] = status
	}
	return report.NewEngine(report.Options{
		Registry:        c.Registry(),
		ListStatuses:    statuses,
		ContentCreators: c.ContentCreators,
		ContentList:     c.ContentList,
	}), nil
}

// Default returns the compiled-in reporting tables for the marketing board.
func Default() Config {
	return Config{
		ContentList:     "EM PROCESSO DE CONTEÚDO",
		ContentCreators: []string{"leonardoferreiracardoso5", "jamillyfreitass"},
		Groups: []GroupConfig{
			{
				Name: "Grupo 1",
				Responsibles: []ResponsibleConfig{
					{Handle: "jamillyfreitass", Name: "Jamily"},
					{Handle: "leonardoferreiracardoso5", Name: "Leo"},
				},
				OpeningStages:   []string{"EM PROCESSO DE CONTEÚDO"},
				FinishingStages: []string{"EM PROCESSO DE MONTAGEM", "EM PROCESSO DE ENVIO"},
				DoneStages:      []string{"FEITOS", "FEITO"},
			},
			{
				Name: "Grupo 2",
				Responsibles: []ResponsibleConfig{
					{Handle: "fazstudioart", Name: "Luiz"},
					{Handle: "miguelluis30", Name: "Miguel"},
				},
				OpeningStages:   []string{"PROCESSO DE CRIAÇÃO"},
				FinishingStages: []string{"EM PROCESSO DE MONTAGEM", "EM PROCESSO DE ENVIO"},
				DoneStages:      []string{"FEITOS", "FEITO"},
			},
			{
				Name: "Grupo 3",
				Responsibles: []ResponsibleConfig{
					{Handle: "samuelpiske1", Name: "Samuel"},
				},
				OpeningStages:   []string{"PROCESSO DE GRAVAÇÃO", "EDIÇÃO"},
				FinishingStages: []string{"EM PROCESSO DE MONTAGEM", "EM PROCESSO DE ENVIO"},
				DoneStages:      []string{"FEITOS", "FEITO"},
			},
			{
				Name: "Grupo 4",
				Responsibles: []ResponsibleConfig{
					{Handle: "flaviasilva", Name: "Flávia"},
					{Handle: "coordenacao", Name: "Coordenação"},
				},
				OpeningStages:   []string{"EM PROCESSO DE QUALIDADE", "EM PROCESSO DE EDIÇÃO E REVISÃO"},
				FinishingStages: []string{"EM PROCESSO DE MONTAGEM", "EM PROCESSO DE ENVIO"},
				DoneStages:      []string{"FEITOS", "FEITO"},
			},
		},
		ListStatuses: map[string]string{
			"PLANEJANDO ESTRATÉGIAS":          string(domain.StatusPlanning),
			"ATIVIDADES RECORRENTES":          string(domain.StatusRecurring),
			"EM PROCESSO DE CONTEÚDO":         string(domain.StatusInProgress),
			"EM PROCESSO DE QUALIDADE":        string(domain.StatusInProgress),
			"EM PROCESSO DE EDIÇÃO E REVISÃO": string(domain.StatusInProgress),
			"EM PROCESSO DE MONTAGEM":         string(domain.StatusInProgress),
			"EM PROCESSO DE REVISÃO":          string(domain.StatusInProgress),
			"AGUARDANDO RETORNO DE CORREÇÕES": string(domain.StatusBlocked),
			"EM PROCESSO DE ENVIO":            string(domain.StatusInProgress),
			"FEITO":                           string(domain.StatusCompleted),
			"FEITOS":                          string(domain.StatusCompleted),
		},
	}
}
