package tables

import (
	"github.com/prof-ramos/planilhas-gov-br/internal/core"
)

// Collection names understood by the sinks.
const (
	AutorizacoesUniao = "autorizacoes_uniao"
	GovernmentData    = "government_data"
)

func init() {
	registerAutorizacoesUniao()
	registerGovernmentData()
}

func registerAutorizacoesUniao() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   AutorizacoesUniao,
			Group: "Uniao",
			Label: "Autorizações de provimento",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "orgao_entidade", Type: core.FieldText, Nullable: true},
			{Name: "vinculo_orgao_entidade", Type: core.FieldText, Nullable: true},
			{Name: "setor", Type: core.FieldText, Nullable: true},
			{Name: "cargos", Type: core.FieldText, Nullable: true},
			{Name: "escolaridade", Type: core.FieldText, Nullable: true},
			{Name: "vagas", Type: core.FieldInteger, Nullable: true},
			{Name: "ato_oficial", Type: core.FieldText, Nullable: true},
			{Name: "tipo_autorizacao", Type: core.FieldText, Nullable: true},
			{Name: "data_provimento", Type: core.FieldDate, Nullable: true},
			{Name: "dou_link", Type: core.FieldText, Nullable: true},
			{Name: "dou_publicacao_ano", Type: core.FieldNumeric, Nullable: true},
			{Name: "dou_concurso_portaria", Type: core.FieldText, Nullable: true},
			{Name: "dou_concurso_link", Type: core.FieldText, Nullable: true},
			{Name: "link_publicacao_dou", Type: core.FieldText, Nullable: true},
			{Name: "area_atuacao_governamental", Type: core.FieldText, Nullable: true},
			{Name: "observacoes", Type: core.FieldText, Nullable: true},
		},
		MergeGroups: []core.MergeGroup{
			{Target: "escolaridade", Sources: []string{"ESC_", core.FieldEscolaridade}},
			{Target: "dou_link", Sources: []string{"D_O_U", core.FieldDOU}},
			{Target: "dou_concurso_link", Sources: []string{"DOU_(Port__Do_Concurso)", "DOU_1"}},
		},
		Renames: map[string]string{
			core.FieldOrgaoEntidade:         "orgao_entidade",
			core.FieldVinculo:               "vinculo_orgao_entidade",
			core.FieldSetor:                 "setor",
			core.FieldCargos:                "cargos",
			core.FieldVagas:                 "vagas",
			core.FieldAtoOficial:            "ato_oficial",
			"ANO_DA_PUBLICAÇÃO":             "dou_publicacao_ano",
			core.FieldTipoAutorizacao:       "tipo_autorizacao",
			"PORT__DO_CONCURSO":             "dou_concurso_portaria",
			"LINK_DA_PUBLICAÇÃO_NO_D_O_U_":  "link_publicacao_dou",
			"ÁREA_DE_ATUAÇÃO_GOVERNAMENTAL": "area_atuacao_governamental",
			"OBS_":                          "observacoes",
			core.FieldDataProvimento:        "data_provimento",
		},
		DropPattern: "Unnamed",
	})
}

// government_data receives the consolidated table as is.
func registerGovernmentData() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:   GovernmentData,
			Group: "Raw",
			Label: "Consolidated spreadsheets",
		},
		Passthrough: true,
	})
}
