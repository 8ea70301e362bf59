package source

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobharvest/internal/model"
)

const keejobListing = `
<html><body>
	<nav class="nav-pagination">
		<a class="page-link" aria-label="Page 2">2</a>
		<a class="page-link" aria-label="Page 7">7</a>
		<a class="page-link" aria-label="Suivant">&raquo;</a>
	</nav>
	<div class="block_b row-fluid">
		<a href="/offres-emploi/123/analyste-financier/" style="color: #005593;">Analyste financier</a>
		<a href="/entreprise/9/" style="color: #000;">Company link</a>
		<a href="/offres-emploi/456/comptable/" style="color: #005593;">Comptable</a>
	</div>
</body></html>`

const keejobDetail = `
<html><body>
	<h1>Software Engineer</h1>
	<div class="span9 content">
		<b><a>TechCorp</a></b>
		<b>Secteur:</b> Technology
		<br/>
		<b>Taille:</b> Large
	</div>
	<div class="block_a span12 no-margin-left">
		Job   description text
	</div>
	<div class="meta"><b>Publiée le:</b> 2025-05-01</div>
	<div class="meta"><b>Référence:</b> KJ-8841</div>
	<div class="meta"><b>Type de poste:</b> CDI &gt; Temps plein</div>
	<div class="meta"><b>Lieu de travail:</b> Tunis</div>
	<div class="meta"><b>Expérience:</b> Entre 2 et 5 ans</div>
	<div class="meta"><b>Étude:</b> Bac + 5</div>
	<div class="meta"><b>Disponibilité:</b> Immédiate</div>
	<div class="meta"><b>Langue:</b> Français, Anglais</div>
	<div class="meta"><b>Rémunération proposée:</b> A négocier</div>
</body></html>`

func TestKeejob_ListingURL(t *testing.T) {
	got := NewKeejob(Options{}).ListingURL("comptabilité", 2)
	assert.Equal(t, "https://www.keejob.com/offres-emploi/?keywords=comptabilit%C3%A9&page=2", got)
}

func TestKeejob_ParseListing(t *testing.T) {
	l, err := NewKeejob(Options{}).ParseListing([]byte(keejobListing))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.keejob.com/offres-emploi/123/analyste-financier/",
		"https://www.keejob.com/offres-emploi/456/comptable/",
	}, l.Refs)
	assert.Equal(t, 7, l.LastPage)
	assert.False(t, l.NoResults)
}

func TestKeejob_ParseListing_Empty(t *testing.T) {
	l, err := NewKeejob(Options{}).ParseListing([]byte(`<html><body><div class="block_b row-fluid"></div></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, l.Refs)
	assert.Zero(t, l.LastPage)
}

func TestKeejob_ParseDetail(t *testing.T) {
	r, err := NewKeejob(Options{}).ParseDetail([]byte(keejobDetail), "https://www.keejob.com/offres-emploi/123/", time.Now())
	require.NoError(t, err)

	assert.Equal(t, "Software Engineer", r.JobTitle)
	assert.Equal(t, "TechCorp", r.Company)
	assert.Equal(t, "Technology", r.Sector)
	assert.Equal(t, "Large", r.CompanySize)
	assert.Equal(t, "Job description text", r.Description)
	assert.Equal(t, "KJ-8841", r.Reference)
	assert.Equal(t, "Temps plein", r.JobType)
	assert.Equal(t, "Tunis", r.WorkLocation)
	assert.Equal(t, "Entre 2 et 5 ans", r.ExperienceText)
	assert.Equal(t, "Bac + 5", r.Education)
	assert.Equal(t, "Immédiate", r.Availability)
	assert.Equal(t, "Français, Anglais", r.LanguagesMentioned)
	assert.Equal(t, "A négocier", r.ProposedRemuneration)
	assert.Equal(t, model.SourceKeejob, r.Source)
	require.NotNil(t, r.PublishedDate)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), *r.PublishedDate)
}

func TestKeejob_ParseDetail_Empty(t *testing.T) {
	r, err := NewKeejob(Options{}).ParseDetail([]byte(`<html><body></body></html>`), "u", time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrExtraction))
	assert.Equal(t, model.Record{}, r)
}

func TestNew_Registry(t *testing.T) {
	s, err := New("Keejob", Options{})
	require.NoError(t, err)
	assert.Equal(t, model.SourceKeejob, s.Name())

	s, err = New("optioncarriere", Options{Locale: "Sousse"})
	require.NoError(t, err)
	assert.Contains(t, s.ListingURL("Finance", 1), "l=Sousse")

	_, err = New("indeed", Options{})
	assert.Error(t, err)
}
