package loader

// Default document names, relative to the source root.
const (
	DefaultTemplate     = "template.json5"
	DefaultDescriptions = "descriptions.json"
	DefaultRecordDir    = "distros/perplexity-verified"
)

// DefaultManifest lists the distribution record documents published with
// the catalog.
var DefaultManifest = []string{
	"4mlinux.json",
	"almalinux.json",
	"alpine-linux.json",
	"antix.json",
	"archlinux.json",
	"arcolinux.json",
	"artix-linux.json",
	"blackarch.json",
	"bodhilinux.json",
	"centos-stream.json",
	"clear-linux.json",
	"container-linux.json",
	"deepin.json",
	"dietpi.json",
	"elementaryos.json",
	"endeavouros.json",
	"endless-os.json",
	"fedora.json",
	"funtoo.json",
	"garuda-linux.json",
	"gentoo.json",
	"kali-linux.json",
	"kaos.json",
	"kde-neon.json",
	"kxstudio.json",
	"linuxmint.json",
	"lxle.json",
	"mageia.json",
	"manjaro.json",
	"mxlinux-variants.json",
	"mxlinux.json",
	"netrunner.json",
	"nixos.json",
	"openmandriva.json",
	"opensuse.json",
	"oracle-linux.json",
	"osgeolive.json",
	"parrot-security-os.json",
	"pclinuxos.json",
	"peppermintos.json",
	"popos.json",
	"porteus.json",
	"puppylinux.json",
	"qubes-os.json",
	"red-hat-enterprise-linux.json",
	"rocky-linux.json",
	"slackware.json",
	"slax.json",
	"solus.json",
	"sparkylinux.json",
	"suse-linux-enterprise.json",
	"tails.json",
	"ubuntu-server.json",
	"ubuntu.json",
	"void-linux.json",
	"zorin-os.json",
}
