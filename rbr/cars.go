package rbr

// carFolders maps the car index reported in telemetry to the folder under
// <install>/Physics holding that car's drivetrain configuration.
var carFolders = map[int32]string{
	0: "c_xsara",
	1: "h_accent",
	2: "mg_zr",
	3: "m_lancer",
	4: "p_206",
	5: "s_i2003",
	6: "t_coroll",
	7: "s_i2000",
}

// ResolveCarFolder returns false for cars without a known physics folder,
// which happens for modded or newly added cars.
func ResolveCarFolder(index int32) (string, bool) {
	f, ok := carFolders[index]
	return f, ok
}
