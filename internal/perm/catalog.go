// Package perm defines the permission catalog: the fixed, ordered list of
// capability slugs every role must own a flag for. The catalog is an
// immutable process-wide constant; role-creation seeds a role's flag set
// from it so no partial roles can exist.
package perm

// Permission slugs. Grouped into three categories: Content, Members, Community.
const (
	// Content
	SlugLihatPost  = "lihat_post"  // view posts
	SlugBuatPost   = "buat_post"   // create posts
	SlugKomentar   = "komentar"    // comment on posts
	SlugVote       = "vote"        // vote on comments and polls
	SlugKelolaPost = "kelola_post" // moderate and delete any post
	SlugPinPost    = "pin_post"    // pin posts

	// Members
	SlugKelolaAnggota    = "kelola_anggota"    // manage members
	SlugTerimaAnggota    = "terima_anggota"    // approve join requests
	SlugKeluarkanAnggota = "keluarkan_anggota" // kick members
	SlugUndangAnggota    = "undang_anggota"    // invite members

	// Community
	SlugKelolaKomunitas = "kelola_komunitas" // manage community (master switch)
	SlugAnalitik        = "analitik"         // analytics
	SlugPembayaran      = "pembayaran"       // payments
	SlugNavigasi        = "navigasi"         // navigation menu
	SlugTampilan        = "tampilan"         // appearance
	SlugAturFitur       = "atur_fitur"       // feature toggles
	SlugPengaturan      = "pengaturan"       // settings
	SlugKelolaRoles     = "kelola_roles"     // manage roles and permissions
)

// Category labels.
const (
	CategoryContent   = "Content"
	CategoryMembers   = "Members"
	CategoryCommunity = "Community"
)

// Well-known role slugs.
const (
	// RoleSlugOwner is the implicit role created with every community. It is
	// immutable: it cannot be edited, deleted, or have flags toggled.
	RoleSlugOwner = "owner"
	// RoleSlugMember is the lazily created default role for joining users.
	RoleSlugMember = "anggota"
	// RoleNameMember is the display name of the default member role.
	RoleNameMember = "Anggota"
)

// Definition is one entry of the permission catalog.
type Definition struct {
	Slug     string
	Name     string
	Category string
	// Default is the flag status seeded for non-owner roles when the
	// creator supplied no explicit status for this slug.
	Default bool
}

// catalog is the ordered list of all capability definitions. Seeding iterates
// it in order so flag rows are created deterministically.
var catalog = []Definition{
	{Slug: SlugLihatPost, Name: "Lihat Post", Category: CategoryContent, Default: true},
	{Slug: SlugBuatPost, Name: "Buat Post", Category: CategoryContent, Default: true},
	{Slug: SlugKomentar, Name: "Komentar", Category: CategoryContent, Default: true},
	{Slug: SlugVote, Name: "Vote", Category: CategoryContent, Default: true},
	{Slug: SlugKelolaPost, Name: "Kelola Post", Category: CategoryContent, Default: false},
	{Slug: SlugPinPost, Name: "Pin Post", Category: CategoryContent, Default: false},

	{Slug: SlugKelolaAnggota, Name: "Kelola Anggota", Category: CategoryMembers, Default: false},
	{Slug: SlugTerimaAnggota, Name: "Terima Anggota", Category: CategoryMembers, Default: false},
	{Slug: SlugKeluarkanAnggota, Name: "Keluarkan Anggota", Category: CategoryMembers, Default: false},
	{Slug: SlugUndangAnggota, Name: "Undang Anggota", Category: CategoryMembers, Default: false},

	{Slug: SlugKelolaKomunitas, Name: "Kelola Komunitas", Category: CategoryCommunity, Default: false},
	{Slug: SlugAnalitik, Name: "Analitik", Category: CategoryCommunity, Default: false},
	{Slug: SlugPembayaran, Name: "Pembayaran", Category: CategoryCommunity, Default: false},
	{Slug: SlugNavigasi, Name: "Navigasi", Category: CategoryCommunity, Default: false},
	{Slug: SlugTampilan, Name: "Tampilan", Category: CategoryCommunity, Default: false},
	{Slug: SlugAturFitur, Name: "Atur Fitur", Category: CategoryCommunity, Default: false},
	{Slug: SlugPengaturan, Name: "Pengaturan", Category: CategoryCommunity, Default: false},
	{Slug: SlugKelolaRoles, Name: "Kelola Roles", Category: CategoryCommunity, Default: false},
}

// dependents are the slugs controlled by the kelola_komunitas master switch.
// Disabling the master cascades false onto all of them; enabling a dependent
// while the master is off is rejected. Enabling the master does NOT cascade.
var dependents = []string{
	SlugAnalitik,
	SlugPembayaran,
	SlugNavigasi,
	SlugTampilan,
	SlugAturFitur,
	SlugPengaturan,
}

// Catalog returns a copy of the ordered catalog.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)

	return out
}

// Lookup returns the definition for a slug, or false if the slug is not part
// of the catalog.
func Lookup(slug string) (Definition, bool) {
	for _, def := range catalog {
		if def.Slug == slug {
			return def, true
		}
	}

	return Definition{}, false
}

// Dependents returns a copy of the dependent slugs of the master switch.
func Dependents() []string {
	out := make([]string, len(dependents))
	copy(out, dependents)

	return out
}

// IsDependent reports whether a slug is controlled by the master switch.
func IsDependent(slug string) bool {
	for _, dep := range dependents {
		if dep == slug {
			return true
		}
	}

	return false
}

// Len returns the number of catalog entries.
func Len() int {
	return len(catalog)
}
