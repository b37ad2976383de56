package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openesg/standards-registry/pkg/apierrors"
	"github.com/openesg/standards-registry/pkg/tabular"
)

func mustParse(t *testing.T, input string) []tabular.Record {
	t.Helper()
	records, err := tabular.Parse(input)
	require.NoError(t, err)
	return records
}

// validSources returns a minimal complete set of the four tabular inputs.
func validSources(t *testing.T) map[string][]tabular.Record {
	t.Helper()
	return map[string][]tabular.Record{
		SourceFramework: mustParse(t,
			"code,versionTag,sourceUrl,effectiveFrom,notes\n"+
				"GRI,2021.1,https://globalreporting.org,2023-01-01,Universal Standards\n"),
		SourceDisclosures: mustParse(t,
			"disclosureId,title,level,mandatoryFor,sectorSpecific,parentDisclosureId\n"+
				"GRI-302,Energy,1,IN_ACCORDANCE|WITH_REFERENCE,no,\n"+
				"GRI-302-1,Energy consumption within the organization,,IN_ACCORDANCE,yes,GRI-302\n"),
		SourceDatapoints: mustParse(t,
			"code,label,dataType,unit,allowedValues,disclosureId,dimensionType\n"+
				"GRI_302_1_A,Total fuel consumption,decimal,MWh,,GRI-302-1,NONE\n"+
				"GRI_302_1_B,Fuel types,enum,,coal|gas|oil,GRI-302-1,EXPLICIT\n"),
		SourceValidationRules: mustParse(t,
			"ruleCode,severity,assertionType,expression,disclosureId\n"+
				"GRI_R1,ERROR,existenceAssertion,exists(GRI_302_1_A),GRI-302-1\n"+
				"GRI_R2,WARNING,valueAssertion,GRI_302_1_A >= 0,\n"),
	}
}

func TestBuildPayload_Complete(t *testing.T) {
	payload, err := BuildPayload(validSources(t))
	require.NoError(t, err)

	assert.Equal(t, FrameworkGRI, payload.FrameworkCode)
	assert.Equal(t, "2021.1", payload.VersionTag)
	assert.Equal(t, "https://globalreporting.org", payload.SourceURL)
	assert.Equal(t, "Universal Standards", payload.Notes)
	require.NotNil(t, payload.EffectiveFrom)
	assert.Equal(t, 2023, payload.EffectiveFrom.Year())

	require.Len(t, payload.Disclosures, 2)
	assert.Equal(t, 1, payload.Disclosures[0].Level)
	assert.Equal(t, []string{"IN_ACCORDANCE", "WITH_REFERENCE"}, payload.Disclosures[0].MandatoryFor)
	assert.False(t, payload.Disclosures[0].SectorSpecific)
	// Level defaults to 2 when absent.
	assert.Equal(t, 2, payload.Disclosures[1].Level)
	assert.True(t, payload.Disclosures[1].SectorSpecific)
	assert.Equal(t, "GRI-302", payload.Disclosures[1].ParentDisclosureID)

	require.Len(t, payload.Datapoints, 2)
	assert.Equal(t, DimensionNone, payload.Datapoints[0].DimensionType)
	assert.Equal(t, []string{"coal", "gas", "oil"}, payload.Datapoints[1].AllowedValues)
	assert.Equal(t, DimensionExplicit, payload.Datapoints[1].DimensionType)

	require.Len(t, payload.ValidationRules, 2)
	assert.Equal(t, SeverityError, payload.ValidationRules[0].Severity)
	assert.Equal(t, AssertionExistence, payload.ValidationRules[0].AssertionType)
	assert.Equal(t, SeverityWarning, payload.ValidationRules[1].Severity)
}

func TestBuildPayload_MissingSource(t *testing.T) {
	sources := validSources(t)
	delete(sources, SourceDatapoints)

	_, err := BuildPayload(sources)
	var verr *apierrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, CodeMissingSource, verr.Code)
	assert.Equal(t, SourceDatapoints, verr.Source)
}

func TestBuildPayload_EmptyFrameworkRecord(t *testing.T) {
	sources := validSources(t)
	sources[SourceFramework] = mustParse(t, "code,versionTag\n")

	_, err := BuildPayload(sources)
	var verr *apierrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, CodeEmptyFrameworkRecord, verr.Code)
}

func TestBuildPayload_UnknownFrameworkCode(t *testing.T) {
	sources := validSources(t)
	sources[SourceFramework] = mustParse(t, "code,versionTag\nCDP,2024.1\n")

	_, err := BuildPayload(sources)
	var verr *apierrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, CodeUnknownFrameworkCode, verr.Code)
	assert.Contains(t, verr.Message, "CDP")
}

func TestBuildPayload_FrameworkFirstRowWins(t *testing.T) {
	sources := validSources(t)
	sources[SourceFramework] = mustParse(t,
		"code,versionTag\nGRI,2021.1\nISSB,2024.1\n")

	payload, err := BuildPayload(sources)
	require.NoError(t, err)
	assert.Equal(t, FrameworkGRI, payload.FrameworkCode)
	assert.Equal(t, "2021.1", payload.VersionTag)
}

func TestBuildPayload_IncompleteDisclosureCitesRow(t *testing.T) {
	sources := validSources(t)
	sources[SourceDisclosures] = mustParse(t,
		"disclosureId,title\nGRI-302,Energy\nGRI-303,\n")

	_, err := BuildPayload(sources)
	var verr *apierrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, CodeIncompleteDisclosure, verr.Code)
	assert.Equal(t, SourceDisclosures, verr.Source)
	assert.Equal(t, 3, verr.Row)
	assert.Contains(t, verr.Error(), "row 3")
}

func TestBuildPayload_LevelDefaultsOnNonNumeric(t *testing.T) {
	sources := validSources(t)
	sources[SourceDisclosures] = mustParse(t,
		"disclosureId,title,level\nGRI-302,Energy,deep\n")

	payload, err := BuildPayload(sources)
	require.NoError(t, err)
	require.Len(t, payload.Disclosures, 1)
	assert.Equal(t, 2, payload.Disclosures[0].Level)
}

func TestBuildPayload_IncompleteDatapoint(t *testing.T) {
	sources := validSources(t)
	sources[SourceDatapoints] = mustParse(t,
		"code,label,dataType\nGRI_302_1_A,,decimal\n")

	_, err := BuildPayload(sources)
	var verr *apierrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, CodeIncompleteDatapoint, verr.Code)
	assert.Equal(t, 2, verr.Row)
}

func TestBuildPayload_UnknownDimensionType(t *testing.T) {
	sources := validSources(t)
	sources[SourceDatapoints] = mustParse(t,
		"code,label,dataType,dimensionType\nDP1,Label,decimal,SIDEWAYS\n")

	_, err := BuildPayload(sources)
	var verr *apierrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, CodeIncompleteDatapoint, verr.Code)
	assert.Contains(t, verr.Message, "SIDEWAYS")
}

func TestBuildPayload_IncompleteValidationRule(t *testing.T) {
	sources := validSources(t)
	sources[SourceValidationRules] = mustParse(t,
		"ruleCode,severity,assertionType,expression\nGRI_R1,ERROR,,exists(x)\n")

	_, err := BuildPayload(sources)
	var verr *apierrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, CodeIncompleteValidationRule, verr.Code)
}

func TestBuildPayload_UnknownSeverity(t *testing.T) {
	sources := validSources(t)
	sources[SourceValidationRules] = mustParse(t,
		"ruleCode,severity,assertionType,expression\nGRI_R1,FATAL,existenceAssertion,exists(x)\n")

	_, err := BuildPayload(sources)
	var verr *apierrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, CodeIncompleteValidationRule, verr.Code)
	assert.Contains(t, verr.Message, "FATAL")
}

func TestParseBool(t *testing.T) {
	assert.True(t, parseBool("true"))
	assert.True(t, parseBool("TRUE"))
	assert.True(t, parseBool("1"))
	assert.True(t, parseBool("Yes"))
	assert.False(t, parseBool("false"))
	assert.False(t, parseBool("0"))
	assert.False(t, parseBool(""))
	assert.False(t, parseBool("y"))
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList("a|b"))
	assert.Equal(t, []string{"a", "b"}, splitList(" a | b | "))
	// Order preserved, duplicates kept.
	assert.Equal(t, []string{"b", "a", "b"}, splitList("b|a|b"))
}

func TestPayloadValidate_WirePath(t *testing.T) {
	payload := &Payload{
		FrameworkCode: FrameworkTCFD,
		VersionTag:    "2021",
		Disclosures: []DisclosureInput{
			{DisclosureID: "TCFD-GOV", Title: "Governance"},
		},
		Datapoints: []DatapointInput{
			{Code: "TCFD_GOV_A", Label: "Board oversight", DataType: "narrative"},
		},
	}
	require.NoError(t, payload.Validate())
	assert.Equal(t, 2, payload.Disclosures[0].Level)
	assert.Equal(t, DimensionNone, payload.Datapoints[0].DimensionType)

	bad := &Payload{FrameworkCode: "CDP", VersionTag: "1"}
	err := bad.Validate()
	var verr *apierrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, CodeUnknownFrameworkCode, verr.Code)
}
