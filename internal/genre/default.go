package genre

// DefaultSupergenres is the built-in taxonomy, used when no taxonomy file is
// configured.
var DefaultSupergenres = []Supergenre{
	{
		Key:     "urban",
		Display: "Urban",
		Tags: []string{
			"alternative hip hop", "hip hop", "rap", "underground hip hop",
			"experimental hip hop", "abstract hip hop", "conscious hip hop",
			"east coast hip hop", "boom bap", "psychedelic hip hop", "trip hop",
			"urbano espanol",
		},
	},
	{
		Key:     "art_chamber",
		Display: "Art Chamber",
		Tags:    []string{"art pop", "chamber pop"},
	},
	{
		Key:     "metropolis",
		Display: "Metropolis",
		Tags: []string{
			"escape room", "pop", "dance pop", "electropop", "uk pop",
			"metropopolis", "dream pop", "hyperpop", "experimental pop",
			"proto-hyperpop", "indietronica",
		},
	},
	{
		Key:     "electronic",
		Display: "Electronic",
		Tags: []string{
			"electronica", "uk bass", "deconstructed club", "wonky", "witch house",
			"microhouse", "intelligent dance music", "fluxwork", "grave wave",
			"hauntology", "classic dubstep", "jungle", "glitchbreak",
			"atmospheric dnb", "wave", "future garage", "new rave", "ambient",
			"alternative dance", "uk experimental electronic", "big beat",
			"latintronica",
		},
	},
	{
		Key:     "alt_rock",
		Display: "Alt Rock",
		Tags:    []string{"indie rock", "alternative rock", "rock", "post-rock", "experimental rock"},
	},
	{
		Key:     "caribbean",
		Display: "Caribbean",
		Tags:    []string{"dancehall", "reggae fusion", "traphall", "jamaican hip hop"},
	},
	{
		Key:     "emo",
		Display: "Emo",
		Tags: []string{
			"emo", "dreamo", "alternative emo", "midwest emo", "lo-fi emo",
			"emo rap", "5th Wave Emo",
		},
	},
}

// DefaultTaxonomy builds a Taxonomy from DefaultSupergenres.
func DefaultTaxonomy() *Taxonomy {
	t, err := NewTaxonomy(DefaultSupergenres)
	if err != nil {
		panic("genre: invalid default taxonomy: " + err.Error())
	}
	return t
}
