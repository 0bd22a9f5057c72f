package schools

// Known is the list of schools offered as suggestions on the registration
// form. Participants may still type a school that is not listed.
var Known = []string{
	"Delhi Public School, Kalinga",
	"Delhi Public School, Damanjodi",
	"Delhi Public School, Rourkela",
	"Delhi Public School, Nalco Nagar",
	"DAV Public School, Unit-8",
	"DAV Public School, Chandrasekharpur",
	"DAV Public School, Pokhariput",
	"DAV Public School, Kalinga Nagar",
	"DAV Public School, CDA Sector-6",
	"Mother's Public School",
	"St. Xavier's High School",
	"St. Joseph's Girls' High School",
	"Sai International School",
	"KIIT International School",
	"ODM Public School",
	"SAI Angan",
	"Kendriya Vidyalaya No. 1, Bhubaneswar",
	"Kendriya Vidyalaya No. 2, CRPF Bhubaneswar",
	"Kendriya Vidyalaya No. 3, Mancheswar",
	"Kendriya Vidyalaya, Cuttack",
	"Jawahar Navodaya Vidyalaya, Khurda",
	"Demonstration Multipurpose School, RIE",
	"Capital High School, Unit-3",
	"BJB Nagar High School",
	"Stewart School",
	"Ravenshaw Collegiate School",
	"Loyola School, Bhubaneswar",
	"Mother's Public School, Unit-1",
	"Sri Aurobindo Integral Education Centre",
	"Vikash Residential School",
	"Madhusudan Law College School",
	"Buxi Jagabandhu English Medium School",
	"Ispat English Medium School, Rourkela",
	"Carmel School, Rourkela",
	"Hamilton High School",
	"Guru Nanak Public School",
	"The Heritage School, Bhubaneswar",
	"Kalinga Institute of Social Sciences",
	"Saraswati Shishu Vidya Mandir, Unit-6",
	"Government High School, Sambalpur",
	"Zilla School, Puri",
	"Blessed Sacrament High School, Puri",
}
