package rules

// TransitionProb is the integer weight matrix approximating the NES
// piece generator: the first roll is uniform over eight slots (seven
// pieces plus a reroll slot), and a repeat or a reroll slot triggers
// one uniform reroll over the seven pieces. Row = previous piece,
// column = candidate next piece; weights sum to 56 per row.
var TransitionProb = [NumPieces][NumPieces]int{
	{2, 9, 9, 9, 9, 9, 9},
	{9, 2, 9, 9, 9, 9, 9},
	{9, 9, 2, 9, 9, 9, 9},
	{9, 9, 9, 2, 9, 9, 9},
	{9, 9, 9, 9, 2, 9, 9},
	{9, 9, 9, 9, 9, 2, 9},
	{9, 9, 9, 9, 9, 9, 2},
}

// TransitionRealisticProb refines the approximation with the dealt-
// piece counter state: the reroll mixes the counter into the index, so
// one column per counter state picks up extra mass. Off by default;
// selected by config.RealisticRNG. Indexed [pieceCount][prev][next];
// rows sum to 448.
var TransitionRealisticProb = [8][NumPieces][NumPieces]int{
	{
		{28, 70, 70, 70, 70, 70, 70},
		{84, 14, 70, 70, 70, 70, 70},
		{84, 70, 14, 70, 70, 70, 70},
		{84, 70, 70, 14, 70, 70, 70},
		{84, 70, 70, 70, 14, 70, 70},
		{84, 70, 70, 70, 70, 14, 70},
		{84, 70, 70, 70, 70, 70, 14},
	},
	{
		{14, 84, 70, 70, 70, 70, 70},
		{70, 28, 70, 70, 70, 70, 70},
		{70, 84, 14, 70, 70, 70, 70},
		{70, 84, 70, 14, 70, 70, 70},
		{70, 84, 70, 70, 14, 70, 70},
		{70, 84, 70, 70, 70, 14, 70},
		{70, 84, 70, 70, 70, 70, 14},
	},
	{
		{14, 70, 84, 70, 70, 70, 70},
		{70, 14, 84, 70, 70, 70, 70},
		{70, 70, 28, 70, 70, 70, 70},
		{70, 70, 84, 14, 70, 70, 70},
		{70, 70, 84, 70, 14, 70, 70},
		{70, 70, 84, 70, 70, 14, 70},
		{70, 70, 84, 70, 70, 70, 14},
	},
	{
		{14, 70, 70, 84, 70, 70, 70},
		{70, 14, 70, 84, 70, 70, 70},
		{70, 70, 14, 84, 70, 70, 70},
		{70, 70, 70, 28, 70, 70, 70},
		{70, 70, 70, 84, 14, 70, 70},
		{70, 70, 70, 84, 70, 14, 70},
		{70, 70, 70, 84, 70, 70, 14},
	},
	{
		{14, 70, 70, 70, 84, 70, 70},
		{70, 14, 70, 70, 84, 70, 70},
		{70, 70, 14, 70, 84, 70, 70},
		{70, 70, 70, 14, 84, 70, 70},
		{70, 70, 70, 70, 28, 70, 70},
		{70, 70, 70, 70, 84, 14, 70},
		{70, 70, 70, 70, 84, 70, 14},
	},
	{
		{14, 70, 70, 70, 70, 84, 70},
		{70, 14, 70, 70, 70, 84, 70},
		{70, 70, 14, 70, 70, 84, 70},
		{70, 70, 70, 14, 70, 84, 70},
		{70, 70, 70, 70, 14, 84, 70},
		{70, 70, 70, 70, 70, 28, 70},
		{70, 70, 70, 70, 70, 84, 14},
	},
	{
		{14, 70, 70, 70, 70, 70, 84},
		{70, 14, 70, 70, 70, 70, 84},
		{70, 70, 14, 70, 70, 70, 84},
		{70, 70, 70, 14, 70, 70, 84},
		{70, 70, 70, 70, 14, 70, 84},
		{70, 70, 70, 70, 70, 14, 84},
		{70, 70, 70, 70, 70, 70, 28},
	},
	{
		{28, 70, 70, 70, 70, 70, 70},
		{84, 14, 70, 70, 70, 70, 70},
		{84, 70, 14, 70, 70, 70, 70},
		{84, 70, 70, 14, 70, 70, 70},
		{84, 70, 70, 70, 14, 70, 70},
		{84, 70, 70, 70, 70, 14, 70},
		{84, 70, 70, 70, 70, 70, 14},
	},
}
